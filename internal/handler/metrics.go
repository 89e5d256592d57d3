package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/penshort/usergate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeByMethod(w, "usergate_upstream_requests_total", snap.UpstreamRequestsByMethod)
	writeMetric(w, "usergate_upstream_success_total %d\n", snap.UpstreamSuccesses)
	writeByMethod(w, "usergate_upstream_errors_total", snap.UpstreamErrorsByMethod)
	writeMetric(w, "usergate_upstream_duration_seconds_sum %.6f\n", float64(snap.UpstreamDurationTotalNs)/1e9)

	writeMetric(w, "usergate_credential_resolved_total{source=\"header\"} %d\n", snap.CredentialFromHeader)
	writeMetric(w, "usergate_credential_resolved_total{source=\"cache\"} %d\n", snap.CredentialFromCache)
	writeMetric(w, "usergate_credential_resolved_total{source=\"none\"} %d\n", snap.CredentialMissing)

	writeMetric(w, "usergate_authorizations_total{decision=\"allowed\"} %d\n", snap.AuthorizationsAllowed)
	writeMetric(w, "usergate_authorizations_total{decision=\"denied\"} %d\n", snap.AuthorizationsDenied)
}

func writeByMethod(w http.ResponseWriter, name string, counts map[string]uint64) {
	methods := make([]string, 0, len(counts))
	for method := range counts {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	for _, method := range methods {
		writeMetric(w, "%s{method=%q} %d\n", name, method, counts[method])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
