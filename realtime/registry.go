package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// TokenVerifier validates an access token presented at channel handshake.
type TokenVerifier interface {
	VerifyAccess(token string) (*core.Claims, error)
}

// Registry binds each identity to at most one live channel. Binding a second
// channel for an already-bound identity evicts the old channel: it receives
// a SESSION_TERMINATED event and is closed before the new binding is
// installed. Bind and Unbind for the same identity are serialized by a
// per-identity mutex; operations on different identities proceed in
// parallel.
type Registry struct {
	log      *slog.Logger
	verifier TokenVerifier
	eventPub ports.EventPublisher

	mu       sync.RWMutex
	bindings map[string]Channel
	locks    map[string]*sync.Mutex
}

// NewRegistry creates a new connection registry. eventPub may be nil.
func NewRegistry(log *slog.Logger, verifier TokenVerifier, eventPub ports.EventPublisher) *Registry {
	return &Registry{
		log:      log,
		verifier: verifier,
		eventPub: eventPub,
		bindings: make(map[string]Channel),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Authenticate validates the access token presented by a new channel. On
// failure the channel must be refused before any binding is created.
func (r *Registry) Authenticate(rawAccessToken string) (*core.Claims, error) {
	if rawAccessToken == "" {
		return nil, core.ErrAuthRejected
	}
	claims, err := r.verifier.VerifyAccess(rawAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthRejected, err)
	}
	return claims, nil
}

// lockFor acquires the mutex serializing binding transitions for an
// identity and returns it locked. Unbind prunes lock entries, so a waiter
// can wake up holding a mutex that is no longer the registered one; it must
// then retry against the current entry.
func (r *Registry) lockFor(identityID string) *sync.Mutex {
	for {
		r.mu.Lock()
		l, ok := r.locks[identityID]
		if !ok {
			l = &sync.Mutex{}
			r.locks[identityID] = l
		}
		r.mu.Unlock()

		l.Lock()

		r.mu.Lock()
		cur := r.locks[identityID]
		r.mu.Unlock()
		if cur == l {
			return l
		}
		l.Unlock()
	}
}

// Bind installs ch as the single live channel for the identity. Any prior
// channel is notified and closed before the new binding takes effect.
func (r *Registry) Bind(identityID string, ch Channel) {
	l := r.lockFor(identityID)
	defer l.Unlock()

	r.mu.RLock()
	old := r.bindings[identityID]
	r.mu.RUnlock()

	if old != nil && old.ID() != ch.ID() {
		r.log.Info("registry.evict", "identity", identityID, "old_channel", old.ID(), "new_channel", ch.ID())
		old.Send(core.SessionTerminatedEvent("new session started elsewhere"))
		old.Close("superseded")

		if r.eventPub != nil {
			if err := r.eventPub.PublishSessionTerminated(context.Background(), identityID, old.ID(), "superseded"); err != nil {
				r.log.Error("registry.publish_fail", "identity", identityID, "err", err)
			}
		}
	}

	r.mu.Lock()
	r.bindings[identityID] = ch
	r.mu.Unlock()

	r.log.Info("registry.bind", "identity", identityID, "channel", ch.ID())

	if r.eventPub != nil {
		if err := r.eventPub.PublishSessionStarted(context.Background(), identityID, ch.ID()); err != nil {
			r.log.Error("registry.publish_fail", "identity", identityID, "err", err)
		}
	}
}

// Unbind removes the binding only if channelID is still the currently
// registered channel for the identity. A close event arriving after the
// channel was superseded must not erase the newer binding. Removing the
// binding also prunes the identity's lock entry so the locks map does not
// grow with identity churn.
func (r *Registry) Unbind(identityID, channelID string) {
	l := r.lockFor(identityID)
	defer l.Unlock()

	r.mu.Lock()
	cur, ok := r.bindings[identityID]
	if ok && cur.ID() == channelID {
		delete(r.bindings, identityID)
		delete(r.locks, identityID)
		ok = true
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		r.log.Info("registry.unbind", "identity", identityID, "channel", channelID)
	}
}

// LookupChannel returns the currently bound channel for the identity.
func (r *Registry) LookupChannel(identityID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.bindings[identityID]
	return ch, ok
}
