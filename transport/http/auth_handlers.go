package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/service"
)

const refreshCookie = "refresh_token"

// AuthHandlers provides the HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	auth       *service.AuthService
	refreshTTL time.Duration
	secure     bool
}

// NewAuthHandlers creates handlers for the auth endpoints. secure controls
// the Secure flag on the refresh cookie.
func NewAuthHandlers(auth *service.AuthService, refreshTTL time.Duration, secure bool) *AuthHandlers {
	return &AuthHandlers{auth: auth, refreshTTL: refreshTTL, secure: secure}
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// VerifyRequest represents an email verification request
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// SigninRequest represents a signin request
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents a token response. The refresh token travels only
// in the http-only cookie, never in the body.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// UserResponse represents an identity in responses
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// setRefreshCookie installs the refresh token as an http-only,
// same-site-strict cookie with a max-age matching its TTL.
func (h *AuthHandlers) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, maxAge, "/", "", h.secure, true)
}

// Signup handles the signup endpoint.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.auth.Signup(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registered, verify the code sent to your email"})
}

// Verify handles the email verification endpoint.
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, core.ErrCodeMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

// Signin handles the signin endpoint.
func (h *AuthHandlers) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	identity, pair, err := h.auth.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "verify account first"})
		case errors.Is(err, core.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signin failed"})
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken, int(h.refreshTTL.Seconds()))

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: pair.AccessToken,
		User:        UserResponse{ID: identity.ID, Email: identity.Email},
	})
}

// Refresh handles the refresh endpoint. The old refresh token arrives via
// cookie; a rotated pair is returned the same way.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	old, err := c.Cookie(refreshCookie)
	if err != nil || old == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), old)
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
			return
		}

		// The token is dead; clear the cookie so the client does not
		// keep replaying it on every subsequent refresh.
		h.setRefreshCookie(c, "", -1)

		switch {
		case errors.Is(err, core.ErrSessionRevoked):
			// Distinct from plain expiry: the session was invalidated,
			// possibly by token reuse.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session_revoked"})
		case errors.Is(err, core.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken, int(h.refreshTTL.Seconds()))

	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken})
}

// Logout handles the logout endpoint.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err == nil && token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}

	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Search handles identity search by email or id.
func (h *AuthHandlers) Search(c *gin.Context) {
	term := c.Query("email")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term required"})
		return
	}

	identity, err := h.auth.Search(c.Request.Context(), term)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": UserResponse{ID: identity.ID, Email: identity.Email}})
}
