package handler

import (
	"fmt"
	"net/http"

	"github.com/coinwatch/coinwatch/internal/metrics"
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
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "coinwatch_signups_total %d\n", snap.Signups)
	writeMetric(w, "coinwatch_logins_total %d\n", snap.Logins)
	writeMetric(w, "coinwatch_auth_failures_total %d\n", snap.AuthFailures)
	writeMetric(w, "coinwatch_accounts_deleted_total %d\n", snap.AccountsDeleted)

	writeMetric(w, "coinwatch_tracked_assets_total{op=\"add\"} %d\n", snap.TrackedAssetsAdded)
	writeMetric(w, "coinwatch_tracked_assets_total{op=\"remove\"} %d\n", snap.TrackedAssetsRemoved)

	writeMetric(w, "coinwatch_upstream_calls_total %d\n", snap.UpstreamCalls)
	writeMetric(w, "coinwatch_upstream_failures_total{kind=\"upstream\"} %d\n", snap.UpstreamFailures)
	writeMetric(w, "coinwatch_upstream_failures_total{kind=\"transport\"} %d\n", snap.TransportFailures)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
