package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/adapters/store"
	"github.com/duetchat/duet/adapters/tokenizer"
	"github.com/duetchat/duet/core"
)

func newTestTokenService(t *testing.T) (*TokenService, *store.MemoryStore) {
	t.Helper()
	tok := tokenizer.NewJWTTokenizer([]byte("access-secret"), []byte("refresh-secret"))
	ms := store.NewMemoryStore()
	return NewTokenService(tok, ms, 15*time.Minute, 7*24*time.Hour), ms
}

func testIdentity() *core.Identity {
	return &core.Identity{
		ID:    uuid.New().String(),
		Email: "alice@example.com",
		State: core.StateVerified,
	}
}

func TestTokenService_AccessRoundtrip(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()

	token, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.IdentityID)
	assert.Equal(t, identity.Email, claims.Email)
}

func TestTokenService_VerifyAccessRejectsGarbage(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestTokenService_VerifyAccessExpired(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()

	svc.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })

	token, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTokenService_RefreshTokenIsRejectedAsAccess(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()

	refresh, err := svc.IssueRefreshToken(context.Background(), identity)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(refresh)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestTokenService_RotationScenario(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()
	ctx := context.Background()

	r1, err := svc.IssueRefreshToken(ctx, identity)
	require.NoError(t, err)

	// First rotation succeeds and supersedes R1.
	pair2, err := svc.RotateRefresh(ctx, r1)
	require.NoError(t, err)
	require.NotEmpty(t, pair2.AccessToken)
	require.NotEqual(t, r1, pair2.RefreshToken)

	// Replaying R1 is detected.
	_, err = svc.RotateRefresh(ctx, r1)
	assert.ErrorIs(t, err, core.ErrSessionRevoked)

	// The current token still rotates.
	pair3, err := svc.RotateRefresh(ctx, pair2.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair2.RefreshToken, pair3.RefreshToken)
}

func TestTokenService_IssueSupersedesPrevious(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()
	ctx := context.Background()

	r1, err := svc.IssueRefreshToken(ctx, identity)
	require.NoError(t, err)

	_, err = svc.IssueRefreshToken(ctx, identity)
	require.NoError(t, err)

	// R1 was silently invalidated by the second issuance.
	_, err = svc.RotateRefresh(ctx, r1)
	assert.ErrorIs(t, err, core.ErrSessionRevoked)
}

func TestTokenService_RotateAfterRevoke(t *testing.T) {
	svc, _ := newTestTokenService(t)
	identity := testIdentity()
	ctx := context.Background()

	r1, err := svc.IssueRefreshToken(ctx, identity)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, identity.ID))

	_, err = svc.RotateRefresh(ctx, r1)
	assert.ErrorIs(t, err, core.ErrSessionRevoked)
}

func TestTokenService_RevokeIdempotent(t *testing.T) {
	svc, _ := newTestTokenService(t)

	require.NoError(t, svc.Revoke(context.Background(), "nobody"))
	require.NoError(t, svc.Revoke(context.Background(), "nobody"))
}

func TestTokenService_RotateRejectsGarbage(t *testing.T) {
	svc, _ := newTestTokenService(t)

	_, err := svc.RotateRefresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestTokenService_RefreshPointerExpiry(t *testing.T) {
	svc, ms := newTestTokenService(t)
	identity := testIdentity()
	ctx := context.Background()

	r1, err := svc.IssueRefreshToken(ctx, identity)
	require.NoError(t, err)

	// Past the store TTL the pointer is gone; the signed expiry no longer
	// matters.
	ms.SetClock(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })

	_, err = svc.RotateRefresh(ctx, r1)
	assert.ErrorIs(t, err, core.ErrSessionRevoked)
}
