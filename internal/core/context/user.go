// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated admin information.
type UserContext struct {
	UserID  string
	Regions []string // Regions the admin may submit for
	IsAdmin bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRegionAccess checks if the authenticated user may operate on a region.
func HasRegionAccess(ctx context.Context, region string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	for _, r := range u.Regions {
		if r == region {
			return true
		}
	}
	return false
}
