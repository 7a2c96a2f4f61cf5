package tokenizer

import "github.com/golang-jwt/jwt/v5"

// Claims combines the registered JWT claims with the identity email. Access
// and refresh tokens share the same claim shape; the signing secret and
// audience are what distinguish the two classes.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}
