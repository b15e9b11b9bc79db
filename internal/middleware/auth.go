package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/models"
	"budgetbook/api/internal/security"
)

const payloadKey = "auth_payload"

// SessionChecker confirms that the session an access token references is
// still live. *repository.SessionRepository satisfies it.
type SessionChecker interface {
	FindLive(ctx context.Context, userID string, hash string) (models.Session, error)
}

// Auth is the per-request authorization guard. An access token authorizes a
// request only if its signature and expiry verify under the access key AND
// the session row its rth references still exists unexpired — which is what
// makes logout take effect immediately for otherwise-stateless tokens.
func Auth(codec *security.TokenCodec, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		payload, err := codec.VerifyAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if payload.UserID == "" || payload.RTH == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if _, err := sessions.FindLive(c.Request.Context(), payload.UserID, payload.RTH); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(payloadKey, payload)
		c.Next()
	}
}

// CurrentPayload returns the authenticated identity the guard attached to
// the request. Handlers behind the guard consume the user id from here and
// nowhere else.
func CurrentPayload(c *gin.Context) (security.TokenPayload, bool) {
	val, exists := c.Get(payloadKey)
	if !exists {
		return security.TokenPayload{}, false
	}
	payload, ok := val.(security.TokenPayload)
	return payload, ok
}
