package http

import (
	"context"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
)

type ctxKey int

const currentUserKey ctxKey = iota

func withCurrentUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(currentUserKey).(domain.User)
	return u, ok
}
