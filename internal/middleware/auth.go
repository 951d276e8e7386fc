package middleware

import (
	"net/http"
	"strings"

	"promptdir/internal/identity"
	"promptdir/internal/logger"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// LoadIdentity verifies a bearer token when one is sent and stores the caller on the
// context. Requests without a token continue as anonymous; a bad token is rejected.
// A nil verifier means no key is configured, so any token is rejected.
func LoadIdentity(verifier *identity.Verifier, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "LoadIdentity")
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		if verifier == nil {
			abortUnauthenticated(c, "token authentication is not configured")
			return
		}
		who, err := verifier.Verify(token)
		if err != nil {
			log.Debug("Rejected bearer token", "error", err)
			abortUnauthenticated(c, "missing or invalid token")
			return
		}
		c.Set(IdentityKey, who)
		c.Next()
	}
}

// AuthRequired rejects anonymous callers. It must run after LoadIdentity.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			abortUnauthenticated(c, "authentication required")
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller, or nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *identity.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	who, _ := v.(*identity.Identity)
	return who
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": message, "code": "unauthenticated"},
	})
}
