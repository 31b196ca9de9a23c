package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

type stubResolver struct {
	users map[string]*model.User
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return user, nil
}

func newAuthTestHandler(resolver TokenResolver, logs *bytes.Buffer) http.Handler {
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return Auth(AuthConfig{Logger: logger, Resolver: resolver})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := auth.AuthFromContext(r.Context())
			if a == nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("X-User", a.UserID)
			w.Header().Set("X-Token", a.Token)
			w.WriteHeader(http.StatusOK)
		}),
	)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "651f00000000000000000001", Email: "andrew@example.com"}
	resolver := &stubResolver{users: map[string]*model.User{"good-token": user}}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"x-auth header", map[string]string{AuthHeader: "good-token"}, http.StatusOK},
		{"bearer fallback", map[string]string{"Authorization": "Bearer good-token"}, http.StatusOK},
		{"missing token", nil, http.StatusUnauthorized},
		{"unknown token", map[string]string{AuthHeader: "bad-token"}, http.StatusUnauthorized},
		{"non-bearer authorization", map[string]string{"Authorization": "Basic good-token"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			handler := newAuthTestHandler(resolver, &logs)

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusUnauthorized {
				if body := strings.TrimSpace(rec.Body.String()); body != "{}" {
					t.Errorf("401 body = %q, want {}", body)
				}
				return
			}

			if rec.Header().Get("X-User") != user.ID {
				t.Errorf("auth context user = %q, want %q", rec.Header().Get("X-User"), user.ID)
			}
			if rec.Header().Get("X-Token") != "good-token" {
				t.Errorf("auth context token = %q, want good-token", rec.Header().Get("X-Token"))
			}
			if strings.Contains(logs.String(), "good-token") {
				t.Error("token must not be logged")
			}
		})
	}
}

func TestAuth_ResolverError(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	handler := newAuthTestHandler(&stubResolver{err: errors.New("store unavailable")}, &logs)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(AuthHeader, "any")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(logs.String(), "token resolution error") {
		t.Errorf("expected resolution error to be logged, got %s", logs.String())
	}
}
