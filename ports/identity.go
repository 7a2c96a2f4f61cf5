package ports

import (
	"context"

	"github.com/duetchat/duet/core"
)

// IdentityStore is the durable record of identities. Lookups return
// core.ErrNotFound when no identity matches.
type IdentityStore interface {
	Create(ctx context.Context, email, passwordHash string) (*core.Identity, error)
	ByEmail(ctx context.Context, email string) (*core.Identity, error)
	ByID(ctx context.Context, id string) (*core.Identity, error)
	MarkVerified(ctx context.Context, email string) error
}
