// internal/app/system/auth/context.go
package auth

import (
	"context"
	"net/http"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context, bypassing
// the session middleware. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}
