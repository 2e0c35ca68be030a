package service

import "context"

type userIDKey struct{}

// WithUserID marks ctx as acting on behalf of the authenticated user id.
// Engine events caused under ctx carry it.
func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserIDFrom returns the user id set by WithUserID.
func UserIDFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey{}).(int)
	return id, ok
}
