package identity

import "context"

type Identity struct {
	UserID uint
	Name   string
	Role   string
	ShopID *uint
}

// Provider answers who is acting in ctx.
type Provider interface {
	CurrentUser(ctx context.Context) (Identity, bool)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != 0
}

// ContextProvider reads the identity the auth middleware stored on the
// request context.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (Identity, bool) {
	return FromContext(ctx)
}
