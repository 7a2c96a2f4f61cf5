package core

import "time"

// VerificationState is the email verification status of an identity.
type VerificationState string

const (
	StateUnverified VerificationState = "Unverified"
	StateVerified   VerificationState = "Verified"
)

// Identity represents a registered user account.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	State        VerificationState
	CreatedAt    time.Time
}

// Verified reports whether the identity has completed email verification.
func (i *Identity) Verified() bool {
	return i.State == StateVerified
}
