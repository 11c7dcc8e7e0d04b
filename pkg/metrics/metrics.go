package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	PipelineRuns    *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	ActivePipelines prometheus.Gauge
}

// New registers and returns the pipeline collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline runs by outcome (completed, error, rejected).",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		ActivePipelines: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_active_runs",
			Help: "Pipeline runs currently in flight.",
		}),
	}
}

// ObserveStage records the elapsed time of a stage that started at t.
func (m *Metrics) ObserveStage(stage string, t time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(t).Seconds())
}
