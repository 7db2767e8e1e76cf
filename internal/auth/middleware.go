package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by Middleware
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	ClaimsKey    = "auth_claims"
	bearerPrefix = "Bearer "
)

// Middleware requires a valid bearer token. A nil token service disables the
// check.
func Middleware(tokens *TokenService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			logger.Debug("Rejected token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		revoked, err := tokens.IsRevoked(c.Request.Context(), claims)
		if err != nil {
			logger.Warn("Token revocation check failed", zap.Error(err))
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrRevokedToken.Error()})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.Subject)
		c.Set(UserEmailKey, claims.Email)
		c.Next()
	}
}
