package actor

import "context"

type contextKey struct{}

// Actor identifies who initiated the current operation. Identity is
// supplied per request by an external concern; the engine never carries a
// global current user.
type Actor struct {
	MemberID int64
	IsAdmin  bool
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func MemberID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.MemberID
}

func IsAdmin(ctx context.Context) bool {
	a, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return a.IsAdmin
}
