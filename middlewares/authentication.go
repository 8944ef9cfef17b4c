package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/obsidianempire/aoc-map/logging"
	"github.com/obsidianempire/aoc-map/routes"
	"github.com/obsidianempire/aoc-map/sessions"
)

// Define a custom type for context keys to avoid collisions
type ContextKey string

const IdentityKey ContextKey = "identity"

// TokenVerifier is satisfied by *sessions.TokenService.
type TokenVerifier interface {
	Verify(token string) (*sessions.Identity, error)
}

// BearerToken returns the token from an Authorization header. Both
// "Bearer <token>" and a bare token are accepted.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const scheme = "bearer"
	if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		rest := header[len(scheme):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return header
}

// Authenticate verifies the request's bearer token. Expired and tampered
// tokens get the same error; the reason only goes to the debug log.
func Authenticate(r *http.Request, tokens TokenVerifier) (*sessions.Identity, error) {
	tokenString := BearerToken(r.Header.Get("Authorization"))
	if tokenString == "" {
		return nil, routes.AuthenticationError("No token provided")
	}

	identity, err := tokens.Verify(tokenString)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, sessions.ErrTokenExpired) {
			reason = "expired"
		}
		logging.Ctx(r.Context()).Debug().Str("reason", reason).Err(err).Msg("token rejected")
		return nil, routes.AuthenticationError("Invalid or expired token")
	}
	return identity, nil
}

// ---------- Middleware ----------

// AuthMiddleware rejects requests without a valid token and puts the verified
// identity on the request context.
func AuthMiddleware(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := Authenticate(r, tokens)
			if err != nil {
				routes.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity stored by AuthMiddleware, or nil.
func IdentityFromContext(ctx context.Context) *sessions.Identity {
	identity, _ := ctx.Value(IdentityKey).(*sessions.Identity)
	return identity
}
