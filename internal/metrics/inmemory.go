package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UpstreamRequests        uint64
	UpstreamSuccesses       uint64
	UpstreamErrors          uint64
	UpstreamDurationTotalNs int64
	CredentialFromHeader    uint64
	CredentialFromCache     uint64
	CredentialMissing       uint64
	AuthorizationsAllowed   uint64
	AuthorizationsDenied    uint64

	// Per HTTP method breakdown of UpstreamRequests and UpstreamErrors.
	UpstreamRequestsByMethod map[string]uint64
	UpstreamErrorsByMethod   map[string]uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	upstreamRequests        uint64
	upstreamSuccesses       uint64
	upstreamErrors          uint64
	upstreamDurationTotalNs int64
	credentialFromHeader    uint64
	credentialFromCache     uint64
	credentialMissing       uint64
	authorizationsAllowed   uint64
	authorizationsDenied    uint64

	mu               sync.Mutex
	requestsByMethod map[string]uint64
	errorsByMethod   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		requestsByMethod: make(map[string]uint64),
		errorsByMethod:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	requests := copyCounts(m.requestsByMethod)
	errs := copyCounts(m.errorsByMethod)
	m.mu.Unlock()

	return Snapshot{
		UpstreamRequests:        atomic.LoadUint64(&m.upstreamRequests),
		UpstreamSuccesses:       atomic.LoadUint64(&m.upstreamSuccesses),
		UpstreamErrors:          atomic.LoadUint64(&m.upstreamErrors),
		UpstreamDurationTotalNs: atomic.LoadInt64(&m.upstreamDurationTotalNs),
		CredentialFromHeader:    atomic.LoadUint64(&m.credentialFromHeader),
		CredentialFromCache:     atomic.LoadUint64(&m.credentialFromCache),
		CredentialMissing:       atomic.LoadUint64(&m.credentialMissing),
		AuthorizationsAllowed:   atomic.LoadUint64(&m.authorizationsAllowed),
		AuthorizationsDenied:    atomic.LoadUint64(&m.authorizationsDenied),

		UpstreamRequestsByMethod: requests,
		UpstreamErrorsByMethod:   errs,
	}
}

// ObserveUpstreamRequest records a completed upstream call.
func (m *InMemoryRecorder) ObserveUpstreamRequest(method string, status int, duration time.Duration) {
	atomic.AddUint64(&m.upstreamRequests, 1)
	m.countMethod(m.requestsByMethod, method)
	if status >= 200 && status <= 299 {
		atomic.AddUint64(&m.upstreamSuccesses, 1)
	}
	atomic.AddInt64(&m.upstreamDurationTotalNs, duration.Nanoseconds())
}

// IncUpstreamError increments the transport error counter.
func (m *InMemoryRecorder) IncUpstreamError(method string) {
	atomic.AddUint64(&m.upstreamErrors, 1)
	m.countMethod(m.errorsByMethod, method)
}

// IncCredentialSource increments the counter for source.
func (m *InMemoryRecorder) IncCredentialSource(source string) {
	switch source {
	case CredentialSourceHeader:
		atomic.AddUint64(&m.credentialFromHeader, 1)
	case CredentialSourceCache:
		atomic.AddUint64(&m.credentialFromCache, 1)
	default:
		atomic.AddUint64(&m.credentialMissing, 1)
	}
}

// IncAuthorization increments the allowed or denied counter.
func (m *InMemoryRecorder) IncAuthorization(allowed bool) {
	if allowed {
		atomic.AddUint64(&m.authorizationsAllowed, 1)
		return
	}
	atomic.AddUint64(&m.authorizationsDenied, 1)
}

func (m *InMemoryRecorder) countMethod(counts map[string]uint64, method string) {
	m.mu.Lock()
	counts[method]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
