package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

const AudienceAccess = "duet:access"
const AudienceRefresh = "duet:refresh"

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs. Access
// and refresh tokens are signed with independent secrets so one class can
// never be presented as the other.
type JWTTokenizer struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(accessSecret, refreshSecret []byte) ports.Tokenizer {
	return &JWTTokenizer{accessSecret: accessSecret, refreshSecret: refreshSecret}
}

// SignAccess converts claims to a signed access token.
func (j *JWTTokenizer) SignAccess(claims *core.Claims) (string, error) {
	return j.sign(claims, AudienceAccess, j.accessSecret)
}

// SignRefresh converts claims to a signed refresh token.
func (j *JWTTokenizer) SignRefresh(claims *core.Claims) (string, error) {
	return j.sign(claims, AudienceRefresh, j.refreshSecret)
}

// VerifyAccess parses and validates an access token.
func (j *JWTTokenizer) VerifyAccess(token string) (*core.Claims, error) {
	return j.verify(token, AudienceAccess, j.accessSecret)
}

// VerifyRefresh parses and validates a refresh token.
func (j *JWTTokenizer) VerifyRefresh(token string) (*core.Claims, error) {
	return j.verify(token, AudienceRefresh, j.refreshSecret)
}

func (j *JWTTokenizer) sign(claims *core.Claims, audience string, secret []byte) (string, error) {
	jwtClaims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.IdentityID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			Audience:  jwt.ClaimStrings{audience},
		},
		Email: claims.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

func (j *JWTTokenizer) verify(tokenStr, audience string, secret []byte) (*core.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithAudience(audience), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, core.ErrInvalidToken
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	// exp is enforced by the parser; iat can still be absent in a token
	// signed elsewhere with the right secret.
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, core.ErrInvalidToken
	}

	return &core.Claims{
		IdentityID: claims.Subject,
		Email:      claims.Email,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
