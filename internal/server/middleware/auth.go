package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gatehouse/gatehouse/internal/identity"
)

type contextKeyAuth string

// AuthIdentityKey is the context key for the verified identity.
const AuthIdentityKey contextKeyAuth = "auth_identity"

// Authenticate returns an HTTP middleware that validates the request's
// bearer token against the identity provider. On success the verified
// identity is attached to the request context. On failure a 401 JSON error
// response is returned; authorization beyond authentication is the
// registry's concern, not this middleware's.
func Authenticate(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide a Bearer token.")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), AuthIdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the verified identity from the context. Returns nil
// for an unauthenticated request.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(AuthIdentityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler package
	w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":"` + message + `"}}`))
}
