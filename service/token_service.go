package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// TokenService issues and verifies access and refresh tokens. Access tokens
// are stateless; refresh tokens are additionally tracked by a pointer in the
// expiring store at refresh:<identity id>, of which at most one exists per
// identity. Issuing a new refresh token overwrites the pointer and thereby
// invalidates the previous token before its natural expiry.
type TokenService struct {
	tokenizer ports.Tokenizer
	store     ports.Store

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(tokenizer ports.Tokenizer, store ports.Store, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		tokenizer:  tokenizer,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// SetClock replaces the service clock, letting tests control issuance time.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

func refreshKey(identityID string) string {
	return "refresh:" + identityID
}

// IssueAccessToken issues a stateless access token for the identity.
func (s *TokenService) IssueAccessToken(identity *core.Identity) (string, error) {
	now := s.now()
	token, err := s.tokenizer.SignAccess(&core.Claims{
		IdentityID: identity.ID,
		Email:      identity.Email,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.accessTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken issues a refresh token and records it as the single
// active one for the identity, superseding any previous token.
func (s *TokenService) IssueRefreshToken(ctx context.Context, identity *core.Identity) (string, error) {
	now := s.now()
	token, err := s.tokenizer.SignRefresh(&core.Claims{
		IdentityID: identity.ID,
		Email:      identity.Email,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.refreshTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.store.Set(ctx, refreshKey(identity.ID), token, s.refreshTTL); err != nil {
		return "", err
	}

	return token, nil
}

// IssuePair issues a fresh access and refresh token pair.
func (s *TokenService) IssuePair(ctx context.Context, identity *core.Identity) (*core.TokenPair, error) {
	access, err := s.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}

	refresh, err := s.IssueRefreshToken(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &core.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token by signature and expiry alone.
func (s *TokenService) VerifyAccess(token string) (*core.Claims, error) {
	return s.tokenizer.VerifyAccess(token)
}

// RotateRefresh verifies the presented refresh token against the stored
// active pointer and, on success, issues a new token pair. A token that is
// well-formed but absent from the store or different from the stored value
// has been superseded or revoked; presenting it fails with ErrSessionRevoked
// and signals probable reuse.
func (s *TokenService) RotateRefresh(ctx context.Context, oldToken string) (*core.TokenPair, error) {
	claims, err := s.tokenizer.VerifyRefresh(oldToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Get(ctx, refreshKey(claims.IdentityID))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrSessionRevoked
		}
		return nil, err
	}
	if stored != oldToken {
		return nil, core.ErrSessionRevoked
	}

	identity := &core.Identity{ID: claims.IdentityID, Email: claims.Email}
	return s.IssuePair(ctx, identity)
}

// Revoke deletes the active refresh pointer for an identity. Revoking an
// identity with no active session is not an error.
func (s *TokenService) Revoke(ctx context.Context, identityID string) error {
	return s.store.Del(ctx, refreshKey(identityID))
}
