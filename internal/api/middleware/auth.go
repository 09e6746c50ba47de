package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/pkg/response"
)

const principalKey = "principal_id"

// Auth verifies the Bearer credential with the identity provider and stashes
// the principal id on the request context. It never touches the user table;
// handlers resolve the principal to a local record themselves.
func Auth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		principalID, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(principalKey, principalID)
		c.Next()
	}
}

// PrincipalID returns the authenticated principal set by Auth, or "" on
// unauthenticated routes.
func PrincipalID(c *gin.Context) string {
	return c.GetString(principalKey)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
