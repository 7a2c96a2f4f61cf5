package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/service"
)

const (
	ctxIdentityID = "identity_id"
	ctxEmail      = "identity_email"
)

// AuthMiddleware creates middleware that validates access tokens.
func AuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")

		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			}
			return
		}

		c.Set(ctxIdentityID, claims.IdentityID)
		c.Set(ctxEmail, claims.Email)

		c.Next()
	}
}

func identityFrom(c *gin.Context) (id, email string) {
	return c.GetString(ctxIdentityID), c.GetString(ctxEmail)
}
