package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups              uint64
	Logins               uint64
	AuthFailures         uint64
	AccountsDeleted      uint64
	TrackedAssetsAdded   uint64
	TrackedAssetsRemoved uint64
	UpstreamCalls        uint64
	UpstreamFailures     uint64
	TransportFailures    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	signups              uint64
	logins               uint64
	authFailures         uint64
	accountsDeleted      uint64
	trackedAssetsAdded   uint64
	trackedAssetsRemoved uint64
	upstreamCalls        uint64
	upstreamFailures     uint64
	transportFailures    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:              atomic.LoadUint64(&m.signups),
		Logins:               atomic.LoadUint64(&m.logins),
		AuthFailures:         atomic.LoadUint64(&m.authFailures),
		AccountsDeleted:      atomic.LoadUint64(&m.accountsDeleted),
		TrackedAssetsAdded:   atomic.LoadUint64(&m.trackedAssetsAdded),
		TrackedAssetsRemoved: atomic.LoadUint64(&m.trackedAssetsRemoved),
		UpstreamCalls:        atomic.LoadUint64(&m.upstreamCalls),
		UpstreamFailures:     atomic.LoadUint64(&m.upstreamFailures),
		TransportFailures:    atomic.LoadUint64(&m.transportFailures),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLogin increments the login counter.
func (m *InMemoryRecorder) IncLogin() {
	atomic.AddUint64(&m.logins, 1)
}

// IncAuthFailure increments the auth failure counter.
func (m *InMemoryRecorder) IncAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}

// IncAccountDeleted increments the account deletion counter.
func (m *InMemoryRecorder) IncAccountDeleted() {
	atomic.AddUint64(&m.accountsDeleted, 1)
}

// IncTrackedAssetAdded increments the tracked asset add counter.
func (m *InMemoryRecorder) IncTrackedAssetAdded() {
	atomic.AddUint64(&m.trackedAssetsAdded, 1)
}

// IncTrackedAssetRemoved increments the tracked asset remove counter.
func (m *InMemoryRecorder) IncTrackedAssetRemoved() {
	atomic.AddUint64(&m.trackedAssetsRemoved, 1)
}

// IncUpstreamCall increments the upstream call counter.
func (m *InMemoryRecorder) IncUpstreamCall() {
	atomic.AddUint64(&m.upstreamCalls, 1)
}

// IncUpstreamFailure increments the upstream failure counter by kind.
func (m *InMemoryRecorder) IncUpstreamFailure(kind string) {
	if kind == "transport" {
		atomic.AddUint64(&m.transportFailures, 1)
		return
	}
	atomic.AddUint64(&m.upstreamFailures, 1)
}
