package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumenhotels/salescrm/internal/config"
	"github.com/lumenhotels/salescrm/internal/http/api/admin/handlers"
	"github.com/lumenhotels/salescrm/internal/security"
)

// operatorAuthMiddleware validates the bearer token and stores the operator
// identity on the request context.
func operatorAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := security.ParseOperatorToken(jwtCfg.Secret, token)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid token"
			if errors.Is(err, security.ErrExpiredToken) {
				message = "token expired"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}

		c.Set(handlers.ContextOperatorID, claims.OperatorID)
		c.Set(handlers.ContextOperatorUsername, claims.Username)
		c.Next()
	}
}
