package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/geotrace/geotrace-go/internal/crypto"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	ID    string
	Email string
}

// TokenVerifier is satisfied by *crypto.TokenService.
type TokenVerifier interface {
	Configured() bool
	Verify(token string) (crypto.TokenClaims, error)
}

// Authenticate returns middleware that requires "Authorization: Bearer <token>".
// Every rejection answers the same 401 body; a server without a signing
// secret is additionally logged as a misconfiguration.
func Authenticate(tokens TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(r.Header.Get("Authorization"), " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				unauthorized(w)
				return
			}

			if !tokens.Configured() {
				log.Error("token verification is misconfigured: JWT_SECRET is not set",
					"path", r.URL.Path,
				)
				unauthorized(w)
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil || claims.Subject == "" {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{ID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.ID != ""
}

// WithIdentity attaches id to ctx. Used by tests that bypass Authenticate.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "unauthorized",
		"code":  "UNAUTHORIZED",
	})
}
