package authctx

import (
	"context"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	serviceKey  ctxKey = "service"
)

// Identity is a verified Firebase user.
type Identity struct {
	UID    string
	Email  string
	Admin  bool
	Claims map[string]any
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil && id.UID != ""
}

// WithService records the subject of a verified internal service token.
func WithService(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, serviceKey, subject)
}

func Service(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(serviceKey).(string)
	return v, ok && v != ""
}
