// Package contract provides contract tests that validate API responses against the OpenAPI spec.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/handler"
	"github.com/lukeybeachboy/todo-api/internal/metrics"
	"github.com/lukeybeachboy/todo-api/internal/middleware"
	"github.com/lukeybeachboy/todo-api/internal/repository/memory"
	"github.com/lukeybeachboy/todo-api/internal/seed"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

// testConfig holds test configuration.
type testConfig struct {
	BaseURL  string
	Token    string
	TodoID   string
	SpecPath string
}

// getConfig returns test configuration. API_BASE_URL points the suite at a
// running server (TEST_AUTH_TOKEN and TEST_TODO_ID come from cmd/seed);
// otherwise an in-process server over the memory store is started.
func getConfig(t *testing.T) *testConfig {
	t.Helper()

	specPath := os.Getenv("OPENAPI_SPEC_PATH")
	if specPath == "" {
		// Default: project root/docs/api/openapi.yaml
		wd, _ := os.Getwd()
		specPath = filepath.Join(wd, "..", "..", "docs", "api", "openapi.yaml")
	}

	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		return &testConfig{
			BaseURL:  strings.TrimRight(baseURL, "/"),
			Token:    os.Getenv("TEST_AUTH_TOKEN"),
			TodoID:   os.Getenv("TEST_TODO_ID"),
			SpecPath: specPath,
		}
	}

	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("contract-test-secret", 0)

	fixtures, err := seed.Build(issuer)
	if err != nil {
		t.Fatalf("build fixtures: %v", err)
	}
	if err := seed.Apply(context.Background(), store, fixtures); err != nil {
		t.Fatalf("apply fixtures: %v", err)
	}

	prom := metrics.NewPrometheus()
	router := handler.NewRouter(handler.RouterConfig{
		Logger:    logger,
		Recorder:  prom,
		Todos:     service.NewTodoService(store, prom),
		Users:     service.NewUserService(store, issuer, nil, prom, logger),
		StoreName: "memory",
		Store:     store,
		CORS:      middleware.DefaultCORSConfig(),
		Metrics:   prom.Handler(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testConfig{
		BaseURL:  srv.URL,
		Token:    fixtures.Users[0].Tokens[0].Token,
		TodoID:   fixtures.Todos[0].ID,
		SpecPath: specPath,
	}
}

// loadSpec loads and validates the OpenAPI spec.
func loadSpec(t *testing.T, path string) (*openapi3.T, routers.Router) {
	t.Helper()

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec from %s: %v", path, err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}

	return spec, router
}

// TestOpenAPISpecValid ensures the OpenAPI spec is valid.
func TestOpenAPISpecValid(t *testing.T) {
	cfg := getConfig(t)
	spec, _ := loadSpec(t, cfg.SpecPath)

	expectedPaths := []string{
		"/todos",
		"/todos/{id}",
		"/users",
		"/users/login",
		"/users/me",
		"/users/me/token",
		"/healthz",
		"/readyz",
		"/metrics",
	}

	for _, path := range expectedPaths {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in spec", path)
		}
	}
}

type exchange struct {
	name   string
	method string
	path   string
	body   string
	auth   bool
	status int
}

// TestResponsesMatchSpec sends one request per documented outcome and
// validates status, headers and body against the spec.
func TestResponsesMatchSpec(t *testing.T) {
	cfg := getConfig(t)
	_, router := loadSpec(t, cfg.SpecPath)

	if cfg.Token == "" || cfg.TodoID == "" {
		t.Skip("TEST_AUTH_TOKEN and TEST_TODO_ID required against a live server")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	signupEmail := "contract-" + time.Now().Format("150405.000000000") + "@example.com"

	cases := []exchange{
		{"healthz", http.MethodGet, "/healthz", "", false, http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", "", false, http.StatusOK},
		{"list todos", http.MethodGet, "/todos", "", false, http.StatusOK},
		{"create todo", http.MethodPost, "/todos", `{"text":"contract todo"}`, false, http.StatusOK},
		{"create todo empty", http.MethodPost, "/todos", `{}`, false, http.StatusBadRequest},
		{"create todo bad json", http.MethodPost, "/todos", `{"text":`, false, http.StatusBadRequest},
		{"get todo", http.MethodGet, "/todos/" + cfg.TodoID, "", false, http.StatusOK},
		{"get todo invalid id", http.MethodGet, "/todos/123", "", false, http.StatusBadRequest},
		{"get todo missing", http.MethodGet, "/todos/651f0000000000000000ffff", "", false, http.StatusNotFound},
		{"patch todo", http.MethodPatch, "/todos/" + cfg.TodoID, `{"completed":true}`, false, http.StatusOK},
		{"patch todo empty text", http.MethodPatch, "/todos/" + cfg.TodoID, `{"text":""}`, false, http.StatusBadRequest},
		{"delete todo missing", http.MethodDelete, "/todos/651f0000000000000000ffff", "", false, http.StatusNotFound},
		{"signup", http.MethodPost, "/users", `{"email":"` + signupEmail + `","password":"123mnb!"}`, false, http.StatusOK},
		{"signup invalid", http.MethodPost, "/users", `{"email":"and","password":"123"}`, false, http.StatusBadRequest},
		{"login bad password", http.MethodPost, "/users/login", `{"email":"andrew@example.com","password":"nope-nope"}`, false, http.StatusBadRequest},
		{"me", http.MethodGet, "/users/me", "", true, http.StatusOK},
		{"me anonymous", http.MethodGet, "/users/me", "", false, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}

			req, err := http.NewRequest(tc.method, cfg.BaseURL+tc.path, body)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.auth {
				req.Header.Set(middleware.AuthHeader, cfg.Token)
			}

			resp, err := client.Do(req)
			if err != nil {
				t.Skipf("Server not available: %v", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("Failed to read response body: %v", err)
			}

			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d. Body: %s", resp.StatusCode, tc.status, respBody)
			}

			validateResponse(t, router, req, resp, respBody)

			if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized {
				validateErrorResponse(t, respBody)
			}
		})
	}
}

func validateResponse(t *testing.T, router routers.Router, req *http.Request, resp *http.Response, body []byte) {
	t.Helper()

	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("Could not find route in spec: %v", err)
	}

	requestValidationInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}

	responseValidationInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestValidationInput,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options:                &openapi3filter.Options{IncludeResponseStatus: true},
	}

	if err := openapi3filter.ValidateResponse(context.Background(), responseValidationInput); err != nil {
		t.Errorf("Response validation failed: %v\nBody: %s", err, body)
	}
}

// validateErrorResponse checks that error responses have required fields.
func validateErrorResponse(t *testing.T, body []byte) {
	t.Helper()

	var errorResp map[string]any
	if err := json.Unmarshal(body, &errorResp); err != nil {
		t.Errorf("Failed to parse error response as JSON: %v\nBody: %s", err, string(body))
		return
	}

	if errorResp["error"] == nil || errorResp["error"] == "" {
		t.Errorf("Error response missing 'error' field. Body: %s", string(body))
	}
	if errorResp["code"] == nil || errorResp["code"] == "" {
		t.Errorf("Error response missing 'code' field. Body: %s", string(body))
	}
	if _, ok := errorResp["todo"]; ok {
		t.Errorf("Error response must not carry a todo. Body: %s", string(body))
	}
}

// TestResponseContentType validates Content-Type headers.
func TestResponseContentType(t *testing.T) {
	cfg := getConfig(t)

	client := &http.Client{Timeout: 10 * time.Second}

	jsonEndpoints := []string{
		"/healthz",
		"/readyz",
		"/todos",
	}

	for _, path := range jsonEndpoints {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(cfg.BaseURL + path)
			if err != nil {
				t.Skipf("Server not available: %v", err)
			}
			defer resp.Body.Close()

			contentType := resp.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				t.Errorf("Expected application/json Content-Type for %s, got: %s", path, contentType)
			}
		})
	}

	t.Run("/metrics", func(t *testing.T) {
		resp, err := client.Get(cfg.BaseURL + "/metrics")
		if err != nil {
			t.Skipf("Server not available: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			t.Skip("metrics disabled on this server")
		}
		if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/plain") {
			t.Errorf("Expected text/plain Content-Type for /metrics, got: %s", contentType)
		}
	})
}
