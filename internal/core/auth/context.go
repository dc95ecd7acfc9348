// Package auth provides the per-request identity and the authorization rules
// for board posts.
package auth

import "context"

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the identity of the user making a request.
// It is resolved from the session by the web middleware.
type Context struct {
	// UserID is the users.id primary key of the logged-in user.
	UserID int

	// Username is the display name of the logged-in user.
	Username string

	// Authenticated indicates whether the request belongs to a logged-in user.
	Authenticated bool
}

// Anonymous returns the context of a visitor who is not logged in.
func Anonymous() Context {
	return Context{Authenticated: false}
}

// LoggedIn returns the context of an authenticated user.
func LoggedIn(userID int, username string) Context {
	return Context{
		UserID:        userID,
		Username:      username,
		Authenticated: true,
	}
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Anonymous()
}
