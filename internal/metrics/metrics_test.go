package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.ObserveRequest("GET", "/todos", 200, 2*time.Millisecond)
	m.IncTodoCreated()
	m.IncTodoCreated()
	m.IncTodoUpdated()
	m.IncTodoDeleted()
	m.IncUserSignup()
	m.IncLogin(ResultSuccess)
	m.IncLogin(ResultFailure)
	m.IncTokenResolve(ResultFailure)
	m.IncTokenCacheHit()
	m.IncTokenCacheMiss()

	snap := m.Snapshot()
	if snap.Requests != 1 || snap.RequestDurationNs != int64(2*time.Millisecond) {
		t.Errorf("requests = %d/%d", snap.Requests, snap.RequestDurationNs)
	}
	if snap.TodosCreated != 2 || snap.TodosUpdated != 1 || snap.TodosDeleted != 1 {
		t.Errorf("todo counters = %+v", snap)
	}
	if snap.LoginSuccesses != 1 || snap.LoginFailures != 1 {
		t.Errorf("login counters = %d/%d, want 1/1", snap.LoginSuccesses, snap.LoginFailures)
	}
	if snap.TokenResolves != 0 || snap.TokenRejects != 1 {
		t.Errorf("token counters = %d/%d, want 0/1", snap.TokenResolves, snap.TokenRejects)
	}
	if snap.TokenCacheHits != 1 || snap.TokenCacheMisses != 1 || snap.UserSignups != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := NewPrometheus()
	r.ObserveRequest("POST", "/todos", 200, time.Millisecond)
	r.IncTodoCreated()
	r.IncLogin(ResultFailure)
	r.IncTokenCacheMiss()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`todo_api_http_requests_total{method="POST",route="/todos",status="200"} 1`,
		`todo_api_todos_operations_total{operation="create"} 1`,
		`todo_api_users_logins_total{result="failure"} 1`,
		`todo_api_auth_token_cache_lookups_total{outcome="miss"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	// Must not panic.
	n := NewNoop()
	n.ObserveRequest("GET", "/", 200, time.Second)
	n.IncTodoCreated()
	n.IncLogin(ResultSuccess)
}
