// Package actor propagates the authenticated user through context.Context so
// lifecycle hooks can attribute changes without reaching for global state.
package actor

import (
	"context"

	"github.com/fastygo/teamtasks/domain"
)

type ctxKey struct{}

// WithUser returns a copy of ctx carrying user as the acting user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, user)
}

// From returns the acting user stored in ctx, if any.
func From(ctx context.Context) (*domain.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ctxKey{}).(*domain.User)
	return user, ok && user != nil
}

// Resolve prefers an explicit actor and falls back to the one carried by ctx.
func Resolve(ctx context.Context, explicit *domain.User) *domain.User {
	if explicit != nil {
		return explicit
	}
	user, _ := From(ctx)
	return user
}
