package ports

import "github.com/duetchat/duet/core"

// Tokenizer converts between claims and signed token strings. Access and
// refresh tokens are signed with independent secrets.
type Tokenizer interface {
	SignAccess(claims *core.Claims) (string, error)
	VerifyAccess(token string) (*core.Claims, error)

	SignRefresh(claims *core.Claims) (string, error)
	VerifyRefresh(token string) (*core.Claims, error)
}
