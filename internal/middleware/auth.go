package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/security"
	"github.com/ariffaisalsheam/menux-app/internal/service"
)

const (
	currentUserKey  = "current_user"
	accessClaimsKey = "access_claims"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, *security.AccessClaims, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Auth rejects the request unless it carries a valid access token.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, msg := http.StatusUnauthorized, "Invalid token"
			switch {
			case errors.Is(err, service.ErrUserUnavailable):
				msg = "User not found or inactive"
			case errors.Is(err, service.ErrTokenRevoked):
				msg = "Session has ended"
			case !errors.Is(err, service.ErrInvalidToken):
				status, msg = http.StatusInternalServerError, "Internal server error"
				_ = c.Error(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(accessClaimsKey, claims)
		c.Set(currentUserKey, user)

		c.Next()
	}
}

// OptionalAuth stores the caller when a valid token is present and never
// rejects the request.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if user, claims, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(accessClaimsKey, claims)
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func AccessClaims(c *gin.Context) *security.AccessClaims {
	v, ok := c.Get(accessClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.AccessClaims)
	return claims
}
