package auth

import (
	"context"

	"github.com/okian/streamwise/internal/domain/model"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Role    model.Role
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}
