package realtime

import (
	"log/slog"

	"github.com/duetchat/duet/core"
)

// Router delivers domain events to an identity's current live channel.
type Router struct {
	log      *slog.Logger
	registry *Registry
}

// NewRouter creates a new event router.
func NewRouter(log *slog.Logger, registry *Registry) *Router {
	return &Router{log: log, registry: registry}
}

// Deliver pushes the event to the identity's bound channel, if any. It
// returns false when the identity has no live channel or the channel could
// not accept the event; the caller treats that as recipient-offline, not an
// error. Delivery is fire-and-forget: no transport acknowledgement is
// awaited.
func (r *Router) Deliver(identityID string, ev core.Event) bool {
	ch, ok := r.registry.LookupChannel(identityID)
	if !ok {
		return false
	}

	if !ch.Send(ev) {
		r.log.Info("router.drop", "identity", identityID, "channel", ch.ID(), "kind", ev.Kind)
		return false
	}
	return true
}
