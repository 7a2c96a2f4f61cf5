package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// CodeTTL is how long a one-time verification code stays valid.
const CodeTTL = 5 * time.Minute

var codeSpace = big.NewInt(1000000)

// ChallengeService issues and verifies one-time email verification codes.
// At most one code is live per email; issuing a new one overwrites it.
type ChallengeService struct {
	store ports.Store
}

// NewChallengeService creates a new challenge service.
func NewChallengeService(store ports.Store) *ChallengeService {
	return &ChallengeService{store: store}
}

func codeKey(email string) string {
	return "otp:" + email
}

// IssueCode generates a uniformly random 6-digit code for the email and
// stores it, replacing any prior live code.
func (s *ChallengeService) IssueCode(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n)

	if err := s.store.Set(ctx, codeKey(email), code, CodeTTL); err != nil {
		return "", err
	}

	return code, nil
}

// VerifyCode checks a submitted code against the live one for the email.
// An absent (expired or never issued) or mismatched code returns false and
// leaves any live code in place. A match deletes the code before returning
// true, so each code verifies at most once.
func (s *ChallengeService) VerifyCode(ctx context.Context, email, submitted string) (bool, error) {
	stored, err := s.store.Get(ctx, codeKey(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if stored != submitted {
		return false, nil
	}

	if err := s.store.Del(ctx, codeKey(email)); err != nil {
		return false, err
	}

	return true, nil
}
