// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncSignup()
	IncLogin()
	IncAuthFailure()
	IncAccountDeleted()

	// Portfolio metrics
	IncTrackedAssetAdded()
	IncTrackedAssetRemoved()

	// Upstream provider metrics
	IncUpstreamCall()
	IncUpstreamFailure(kind string) // kind: "upstream" or "transport"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
