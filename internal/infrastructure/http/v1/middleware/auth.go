package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"vouchersync/internal/core/apperror"
	appctx "vouchersync/internal/core/context"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)

		c.Next()
	}
}

// RequireRegion enforces region access for submission routes. The region
// comes from the request (query or body routing field); the claim set
// comes from the token.
func RequireRegion(region string, c *gin.Context) bool {
	if region == "" {
		return true
	}
	if appctx.HasRegionAccess(c.Request.Context(), region) {
		return true
	}
	_ = c.Error(apperror.NewForbidden("no access to region").WithDetail("region", region))
	c.Abort()
	return false
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
