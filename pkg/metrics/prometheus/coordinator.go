// Package prometheus provides the Prometheus-backed implementation of
// pkg/metrics.CoordinatorMetrics, in the style of dittofs's
// pkg/metrics/prometheus package (promauto-registered counters/histograms
// with a "dittofs_"-style name prefix, here "debuginfo_ingest_").
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parca-dev/debuginfo-ingest/pkg/metrics"
)

// coordinatorMetrics is the Prometheus implementation of metrics.CoordinatorMetrics.
type coordinatorMetrics struct {
	decisions     *prometheus.CounterVec
	uploadOutcome *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	uploadSeconds prometheus.Histogram
	rpcErrors     *prometheus.CounterVec
}

// NewCoordinatorMetrics registers and returns a Prometheus-backed
// metrics.CoordinatorMetrics against reg. Callers that disable metrics
// should use metrics.NoopCoordinatorMetrics instead of calling this.
func NewCoordinatorMetrics(reg prometheus.Registerer) metrics.CoordinatorMetrics {
	return &coordinatorMetrics{
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "debuginfo_ingest_decisions_total",
				Help: "Total should-initiate-upload decisions by reason code and outcome",
			},
			[]string{"reason", "should_initiate"},
		),
		uploadOutcome: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "debuginfo_ingest_uploads_total",
				Help: "Total completed Upload RPCs by outcome",
			},
			[]string{"outcome"},
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "debuginfo_ingest_upload_bytes",
				Help:    "Size in bytes of completed uploads",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		uploadSeconds: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "debuginfo_ingest_upload_duration_seconds",
				Help:    "Duration of completed Upload RPCs",
				Buckets: prometheus.DefBuckets,
			},
		),
		rpcErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "debuginfo_ingest_rpc_errors_total",
				Help: "Total RPC errors by procedure and error code",
			},
			[]string{"procedure", "code"},
		),
	}
}

func (m *coordinatorMetrics) ObserveDecision(reason string, shouldInitiate bool) {
	m.decisions.WithLabelValues(reason, boolLabel(shouldInitiate)).Inc()
}

func (m *coordinatorMetrics) ObserveUpload(outcome string, bytes int64, duration time.Duration) {
	m.uploadOutcome.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.uploadBytes.Observe(float64(bytes))
		m.uploadSeconds.Observe(duration.Seconds())
	}
}

func (m *coordinatorMetrics) ObserveRPCError(procedure, code string) {
	m.rpcErrors.WithLabelValues(procedure, code).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
