package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveUpstreamRequest is a no-op.
func (n *NoopRecorder) ObserveUpstreamRequest(method string, status int, duration time.Duration) {}

// IncUpstreamError is a no-op.
func (n *NoopRecorder) IncUpstreamError(method string) {}

// IncCredentialSource is a no-op.
func (n *NoopRecorder) IncCredentialSource(source string) {}

// IncAuthorization is a no-op.
func (n *NoopRecorder) IncAuthorization(allowed bool) {}
