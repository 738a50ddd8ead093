package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "bearer"
	ContextUserIDKey    = "userID"
)

type userIDKey struct{}

// TokenValidator resolves a bearer token to the id of a user that still exists.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token. The user id
// is stored on the gin context and on the request context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	log := logrus.WithField("component", "auth")

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(authorizationHeader))
		if !ok {
			abortUnauthorized(c, "authorization header required")
			return
		}

		userID, err := tokens.ValidateToken(token)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Debug("token rejected")
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || strings.ToLower(fields[0]) != authorizationType {
		return "", false
	}
	return fields[1], true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok && idStr != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user of a request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
