package auth

import (
	"context"

	"metallix-backend/internal/domain"

	"github.com/google/uuid"
)

// Caller is the authenticated identity every ledger operation runs on behalf of.
type Caller struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// Authenticated reports whether the caller carries a user id.
func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
