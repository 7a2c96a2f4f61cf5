package ports

import "context"

// Mailer delivers one-time verification codes. The actual transport is an
// external collaborator; implementations may only log in development.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}
