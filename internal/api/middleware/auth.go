package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/model"
)

type contextKey string

const userKey contextKey = "authenticated_user"

// Authenticator resolves a bearer credential to a user.
// *core.UserService satisfies this interface.
type Authenticator interface {
	Authenticate(ctx context.Context, candidate string) core.AuthResult
}

// ExtractKey pulls the API key from the request. The x-api-key header takes
// precedence over an Authorization bearer token when both are present.
func ExtractKey(r *http.Request) string {
	if key := r.Header.Get("x-api-key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// Auth returns a middleware that authenticates requests against stored API
// keys and attaches the resolved user to the request context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := authn.Authenticate(r.Context(), ExtractKey(r))
			if !res.Success {
				if res.Hint != "" {
					response.WriteErrorHint(w, http.StatusUnauthorized, res.Error, res.Hint)
				} else {
					response.WriteError(w, http.StatusUnauthorized, res.Error)
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, res.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user from the request context, or nil
// on unauthenticated routes.
func GetUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// WithUser attaches a user to the context. Test helper for handlers.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
