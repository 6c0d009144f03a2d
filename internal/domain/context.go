package domain

import "context"

type callerKey struct{}

// Caller carries the authenticated identity through request context.
type Caller struct {
	Username    string
	AccountType string // "human" or "service"
	OrgID       string
}

// WithCaller stores a Caller in the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the Caller from the context.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
