package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type contextKey string

const (
	// AccessTokenContextKey stores the raw bearer token so logout can revoke it.
	AccessTokenContextKey contextKey = "access_token"
)

// Authenticator verifies an access token and returns the caller it names.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// WithIdentity reads the bearer token and attaches the caller's identity to
// the request context. Requests without a token continue anonymously; a
// token that fails verification is rejected with 401.
func WithIdentity(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				respondWithError(w, r, err)
				return
			}

			ctx := domain.NewContextWithIdentity(r.Context(), id)
			ctx = context.WithValue(ctx, AccessTokenContextKey, token)
			ctx = ContextWithLogger(ctx, GetLogger(ctx).With(slog.String("user_id", id.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.IsAuthenticated(r.Context()) {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers without the given role. Anonymous callers
// get 401, authenticated callers with another role get 403.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := domain.IdentityFromContext(r.Context())
			if id == nil {
				respondUnauthorized(w, r)
				return
			}
			if id.Role != role {
				respondForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAccessToken returns the bearer token of an authenticated request.
func GetAccessToken(ctx context.Context) string {
	token, _ := ctx.Value(AccessTokenContextKey).(string)
	return token
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
