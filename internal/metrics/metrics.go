// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Credential sources reported by IncCredentialSource.
const (
	CredentialSourceHeader = "header"
	CredentialSourceCache  = "cache"
	CredentialSourceNone   = "none"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Upstream user service calls
	ObserveUpstreamRequest(method string, status int, duration time.Duration)
	IncUpstreamError(method string)

	// Credential resolution
	IncCredentialSource(source string) // source: "header", "cache" or "none"

	// Policy decisions
	IncAuthorization(allowed bool)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
