package core

import "errors"

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrSessionRevoked   = errors.New("session has been revoked")
	ErrAuthRejected     = errors.New("authentication rejected")
	ErrCodeMismatch     = errors.New("invalid or expired code")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("identity not verified")
)
