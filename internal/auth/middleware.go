package auth

import (
	"context"
	"net/http"
	"strings"
)

type identityContextKey struct{}

type Middleware struct {
	secret string
}

func NewMiddleware(secret string) Middleware {
	return Middleware{secret: secret}
}

func (m Middleware) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		identity, err := Verify(strings.TrimPrefix(authz, prefix), m.secret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityContextKey{})
	id, ok := v.(Identity)
	return id, ok
}

// WithIdentity injects an identity directly, bypassing token verification.
// Handler tests use it.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}
