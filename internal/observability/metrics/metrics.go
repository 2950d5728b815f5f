package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for voice-to-lead runs.
type PipelineMetrics struct {
	runsTotal     *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceleads",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by outcome",
		}, []string{"outcome", "entry"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceleads",
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Total failed runs by failing stage",
		}, []string{"stage"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voiceleads",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.failuresTotal, m.runDuration)
	return m
}

func (m *PipelineMetrics) ObserveRun(outcome, entry string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome, entry).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *PipelineMetrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(stage).Inc()
}
