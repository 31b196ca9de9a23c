package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest is a no-op.
func (n *NoopRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {}

// IncTodoCreated is a no-op.
func (n *NoopRecorder) IncTodoCreated() {}

// IncTodoUpdated is a no-op.
func (n *NoopRecorder) IncTodoUpdated() {}

// IncTodoDeleted is a no-op.
func (n *NoopRecorder) IncTodoDeleted() {}

// IncUserSignup is a no-op.
func (n *NoopRecorder) IncUserSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(result string) {}

// IncTokenResolve is a no-op.
func (n *NoopRecorder) IncTokenResolve(result string) {}

// IncTokenCacheHit is a no-op.
func (n *NoopRecorder) IncTokenCacheHit() {}

// IncTokenCacheMiss is a no-op.
func (n *NoopRecorder) IncTokenCacheMiss() {}
