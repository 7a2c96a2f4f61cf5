package core

import "time"

// Claims is the decoded content of an access or refresh token.
type Claims struct {
	IdentityID string
	Email      string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
