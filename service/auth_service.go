package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// AuthService orchestrates signup, email verification, signin and logout.
type AuthService struct {
	identities ports.IdentityStore
	tokens     *TokenService
	challenges *ChallengeService
	mailer     ports.Mailer
	eventPub   ports.EventPublisher
	pepper     string
	log        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	identities ports.IdentityStore,
	tokens *TokenService,
	challenges *ChallengeService,
	mailer ports.Mailer,
	eventPub ports.EventPublisher,
	pepper string,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		identities: identities,
		tokens:     tokens,
		challenges: challenges,
		mailer:     mailer,
		eventPub:   eventPub,
		pepper:     pepper,
		log:        log,
	}
}

// Signup registers a new unverified identity and issues a verification code.
// Code delivery failures are logged, not surfaced; the code can be re-issued.
func (s *AuthService) Signup(ctx context.Context, email, password string) error {
	if _, err := s.identities.ByEmail(ctx, email); err == nil {
		return core.ErrAlreadyExists
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("lookup identity: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password+s.pepper), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.identities.Create(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	code, err := s.challenges.IssueCode(ctx, email)
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}

	if err := s.mailer.SendCode(ctx, email, code); err != nil {
		s.log.Error("auth.signup.mail_fail", "email", email, "err", err)
	}

	return nil
}

// VerifyEmail checks the submitted one-time code and, on success, marks the
// identity as verified. The code is consumed exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	ok, err := s.challenges.VerifyCode(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrCodeMismatch
	}

	if err := s.identities.MarkVerified(ctx, email); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	return nil
}

// Signin authenticates an identity by password and issues a token pair.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*core.Identity, *core.TokenPair, error) {
	identity, err := s.identities.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, core.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup identity: %w", err)
	}

	if !identity.Verified() {
		return nil, nil, core.ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password+s.pepper)); err != nil {
		return nil, nil, core.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	return identity, pair, nil
}

// Refresh rotates a refresh token and returns a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*core.TokenPair, error) {
	return s.tokens.RotateRefresh(ctx, refreshToken)
}

// Logout revokes the active session of the identity behind the refresh
// token. An invalid or expired token is treated as already logged out.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.tokenizer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, claims.IdentityID); err != nil {
		return err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishSessionRevoked(ctx, claims.IdentityID); err != nil {
			// The session is already revoked in the store, which is the
			// critical part.
			s.log.Error("auth.logout.publish_fail", "identity", claims.IdentityID, "err", err)
		}
	}

	return nil
}

// Search finds an identity by email or id.
func (s *AuthService) Search(ctx context.Context, term string) (*core.Identity, error) {
	if _, err := uuid.Parse(term); err == nil {
		return s.identities.ByID(ctx, term)
	}
	return s.identities.ByEmail(ctx, term)
}
