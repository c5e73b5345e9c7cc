package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the request ID in both directions.
const Header = "X-Request-ID"

const maxLen = 128

type ctxKey struct{}

func New() string {
	return uuid.NewString()
}

// Accept returns id if a client-supplied value is safe to echo into logs and
// headers, or a fresh ID otherwise.
func Accept(id string) string {
	if id == "" || len(id) > maxLen {
		return New()
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e {
			return New()
		}
	}
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns "" if no request ID is attached.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
