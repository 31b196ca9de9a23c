// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Result labels for authentication outcomes.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// HTTP metrics
	ObserveRequest(method, route string, status int, duration time.Duration)

	// Todo metrics
	IncTodoCreated()
	IncTodoUpdated()
	IncTodoDeleted()

	// User and token metrics
	IncUserSignup()
	IncLogin(result string) // result: "success" or "failure"
	IncTokenResolve(result string)
	IncTokenCacheHit()
	IncTokenCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
