// Package auth resolves the authenticated caller identity for API requests.
//
// Authentication itself happens upstream (a fronting proxy or gateway); this
// package trusts the identity header it forwards and threads the identity
// through the request context so handlers can treat it as an explicit
// parameter.
package auth

import (
	"context"
	"net/http"
)

// CallerHeader is the trusted header carrying the authenticated caller
// identity.
const CallerHeader = "X-Docvault-Caller"

type contextKey int

const callerKey contextKey = 0

// WithCaller returns a context carrying the caller identity.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// MustGetCaller returns the caller identity from the context, or the empty
// string if none was set.
func MustGetCaller(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}

// Middleware copies the caller identity header into the request context.
// Requests without an identity proceed; handlers reject them per operation,
// since some reads are anonymous-safe.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(CallerHeader)
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}
