package ports

import (
	"context"

	"github.com/duetchat/duet/core"
)

// MessageStore persists chat messages. Edit and SoftDelete return
// core.ErrNotFound when the message does not exist or is not owned by the
// given sender.
type MessageStore interface {
	Insert(ctx context.Context, senderID, receiverID, content string, fileID *string) (*core.Message, error)
	History(ctx context.Context, userID, otherID string) ([]core.Message, error)
	Edit(ctx context.Context, messageID, senderID, content string) (*core.Message, error)
	SoftDelete(ctx context.Context, messageID, senderID string) (*core.Message, error)
}

// ConnectionStore persists mutual connections between identities.
type ConnectionStore interface {
	// Create inserts both directions of a connection. It returns
	// core.ErrAlreadyExists when a connection between the two identities
	// exists in either direction.
	Create(ctx context.Context, userID, connectedUserID string) error
	List(ctx context.Context, userID string) ([]core.Connection, error)
	// Delete removes both directions of the connection between userID and
	// connectedUserID. It returns core.ErrNotFound when no such connection
	// involves userID.
	Delete(ctx context.Context, userID, connectedUserID string) error
}
