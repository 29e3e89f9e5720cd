package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}

// IncAccountDeleted is a no-op.
func (n *NoopRecorder) IncAccountDeleted() {}

// IncTrackedAssetAdded is a no-op.
func (n *NoopRecorder) IncTrackedAssetAdded() {}

// IncTrackedAssetRemoved is a no-op.
func (n *NoopRecorder) IncTrackedAssetRemoved() {}

// IncUpstreamCall is a no-op.
func (n *NoopRecorder) IncUpstreamCall() {}

// IncUpstreamFailure is a no-op.
func (n *NoopRecorder) IncUpstreamFailure(kind string) {}
