package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Requests          uint64
	RequestDurationNs int64
	TodosCreated      uint64
	TodosUpdated      uint64
	TodosDeleted      uint64
	UserSignups       uint64
	LoginSuccesses    uint64
	LoginFailures     uint64
	TokenResolves     uint64
	TokenRejects      uint64
	TokenCacheHits    uint64
	TokenCacheMisses  uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	requests          uint64
	requestDurationNs int64
	todosCreated      uint64
	todosUpdated      uint64
	todosDeleted      uint64
	userSignups       uint64
	loginSuccesses    uint64
	loginFailures     uint64
	tokenResolves     uint64
	tokenRejects      uint64
	tokenCacheHits    uint64
	tokenCacheMisses  uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Requests:          atomic.LoadUint64(&m.requests),
		RequestDurationNs: atomic.LoadInt64(&m.requestDurationNs),
		TodosCreated:      atomic.LoadUint64(&m.todosCreated),
		TodosUpdated:      atomic.LoadUint64(&m.todosUpdated),
		TodosDeleted:      atomic.LoadUint64(&m.todosDeleted),
		UserSignups:       atomic.LoadUint64(&m.userSignups),
		LoginSuccesses:    atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:     atomic.LoadUint64(&m.loginFailures),
		TokenResolves:     atomic.LoadUint64(&m.tokenResolves),
		TokenRejects:      atomic.LoadUint64(&m.tokenRejects),
		TokenCacheHits:    atomic.LoadUint64(&m.tokenCacheHits),
		TokenCacheMisses:  atomic.LoadUint64(&m.tokenCacheMisses),
	}
}

// ObserveRequest counts a request and its duration.
func (m *InMemoryRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
	atomic.AddInt64(&m.requestDurationNs, duration.Nanoseconds())
}

// IncTodoCreated increments todo created counter.
func (m *InMemoryRecorder) IncTodoCreated() {
	atomic.AddUint64(&m.todosCreated, 1)
}

// IncTodoUpdated increments todo updated counter.
func (m *InMemoryRecorder) IncTodoUpdated() {
	atomic.AddUint64(&m.todosUpdated, 1)
}

// IncTodoDeleted increments todo deleted counter.
func (m *InMemoryRecorder) IncTodoDeleted() {
	atomic.AddUint64(&m.todosDeleted, 1)
}

// IncUserSignup increments user signup counter.
func (m *InMemoryRecorder) IncUserSignup() {
	atomic.AddUint64(&m.userSignups, 1)
}

// IncLogin increments the login counter for result.
func (m *InMemoryRecorder) IncLogin(result string) {
	if result == ResultSuccess {
		atomic.AddUint64(&m.loginSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncTokenResolve increments the token resolution counter for result.
func (m *InMemoryRecorder) IncTokenResolve(result string) {
	if result == ResultSuccess {
		atomic.AddUint64(&m.tokenResolves, 1)
		return
	}
	atomic.AddUint64(&m.tokenRejects, 1)
}

// IncTokenCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncTokenCacheHit() {
	atomic.AddUint64(&m.tokenCacheHits, 1)
}

// IncTokenCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncTokenCacheMiss() {
	atomic.AddUint64(&m.tokenCacheMisses, 1)
}
