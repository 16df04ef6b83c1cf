package middleware

import (
	"context"
	"strings"

	"carrental/internal/utils"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the authenticated email.
const IdentityKey = "user_id"

// TokenVerifier resolves an access token to the caller's identity.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// AuthRequired validates the bearer token and sets the caller's identity.
// Browsers cannot set headers on websocket handshakes, so a ?token= query
// parameter is accepted as well.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		identity, err := verifier.ValidateToken(c.Request.Context(), token)
		if err != nil || identity == "" {
			utils.UnauthorizedResponse(c, utils.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("token")
}
