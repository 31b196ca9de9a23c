package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

// TokenResolver maps a presented token to the user holding it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver TokenResolver
}

// Auth returns a middleware that authenticates requests.
// It reads the token from the x-auth header, falling back to
// "Authorization: Bearer", resolves it and injects the auth context
// into the request. Missing or unresolvable tokens get 401 with an
// empty JSON object.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					append([]any{slog.String("reason", "missing_token")}, requestAttrs(r)...)...)
				writeAuthError(w)
				return
			}

			user, err := cfg.Resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					cfg.Logger.Warn("authentication failed",
						append([]any{slog.String("reason", "invalid_token")}, requestAttrs(r)...)...)
				} else {
					cfg.Logger.Error("token resolution error",
						append([]any{slog.String("error", err.Error())}, requestAttrs(r)...)...)
				}
				writeAuthError(w)
				return
			}

			cfg.Logger.Debug("authentication successful",
				append([]any{slog.String("user_id", user.ID)}, requestAttrs(r)...)...)

			ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
				Token:  token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the auth token from the request.
func extractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(AuthHeader)); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// The body is the same for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{}`))
}
