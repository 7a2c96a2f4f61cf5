package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/duetchat/duet/ports"
)

// SessionEvent is the wire shape of a session lifecycle event.
type SessionEvent struct {
	Kind       string `json:"kind"`
	IdentityID string `json:"identity_id"`
	ChannelID  string `json:"channel_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "duet.sessions",
	}
}

// PublishSessionStarted announces a new live channel binding.
func (p *WatermillPublisher) PublishSessionStarted(ctx context.Context, identityID, channelID string) error {
	return p.publish(SessionEvent{Kind: "started", IdentityID: identityID, ChannelID: channelID})
}

// PublishSessionTerminated announces an evicted or closed channel.
func (p *WatermillPublisher) PublishSessionTerminated(ctx context.Context, identityID, channelID, reason string) error {
	return p.publish(SessionEvent{Kind: "terminated", IdentityID: identityID, ChannelID: channelID, Reason: reason})
}

// PublishSessionRevoked announces an explicit logout.
func (p *WatermillPublisher) PublishSessionRevoked(ctx context.Context, identityID string) error {
	return p.publish(SessionEvent{Kind: "revoked", IdentityID: identityID})
}

func (p *WatermillPublisher) publish(event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards all events. Used in tests and single-instance
// deployments that do not run a stream.
type NopPublisher struct{}

func (NopPublisher) PublishSessionStarted(ctx context.Context, identityID, channelID string) error {
	return nil
}

func (NopPublisher) PublishSessionTerminated(ctx context.Context, identityID, channelID, reason string) error {
	return nil
}

func (NopPublisher) PublishSessionRevoked(ctx context.Context, identityID string) error {
	return nil
}
