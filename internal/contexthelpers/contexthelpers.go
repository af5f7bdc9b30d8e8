// Package contexthelpers carries the user a command operates on in a [context.Context].
package contexthelpers

import (
	"context"
)

type contextKey string

const AuthenticatedUserIDContextKey = contextKey("authenticatedUserID")

// WithUserID scopes ctx to the user that the planner operates on.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, AuthenticatedUserIDContextKey, userID)
}

// AuthenticatedUserID returns the user ID stored with [WithUserID] or 0 when none is set.
func AuthenticatedUserID(ctx context.Context) int {
	userID, ok := ctx.Value(AuthenticatedUserIDContextKey).(int)
	if !ok {
		return 0
	}

	return userID
}
