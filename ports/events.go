package ports

import "context"

// EventPublisher publishes session lifecycle events to notify other instances.
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, identityID, channelID string) error
	PublishSessionTerminated(ctx context.Context, identityID, channelID, reason string) error
	PublishSessionRevoked(ctx context.Context, identityID string) error
}
