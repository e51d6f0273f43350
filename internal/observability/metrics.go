package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	StageCalls        *prometheus.CounterVec
	StageRetries      *prometheus.CounterVec
	GuardrailOutcomes *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	RunsActive        prometheus.Gauge
}

// NewMetrics registers a fresh set of collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_optimizer_runs_total",
				Help: "Total number of analysis runs by tier and final status",
			},
			[]string{"tier", "status"},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resume_optimizer_run_duration_seconds",
				Help:    "Duration of analysis runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"tier"},
		),
		StageCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_optimizer_stage_calls_total",
				Help: "Total number of model stage calls by outcome",
			},
			[]string{"stage", "outcome"},
		),
		StageRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_optimizer_stage_retries_total",
				Help: "Total number of transient retries per stage",
			},
			[]string{"stage"},
		),
		GuardrailOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_optimizer_guardrail_outcomes_total",
				Help: "Rewrite validation outcomes: passed, corrected or failed",
			},
			[]string{"result"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_optimizer_cache_lookups_total",
				Help: "Result cache lookups by result",
			},
			[]string{"result"},
		),
		RunsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "resume_optimizer_runs_active",
				Help: "Number of analysis runs in progress",
			},
		),
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(tier, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(tier, status).Inc()
	m.RunDuration.WithLabelValues(tier).Observe(elapsed.Seconds())
}

// ObserveStage records one stage call and the retries it needed.
func (m *Metrics) ObserveStage(stage string, retries int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StageCalls.WithLabelValues(stage, outcome).Inc()
	if retries > 0 {
		m.StageRetries.WithLabelValues(stage).Add(float64(retries))
	}
}

// ObserveGuardrail records how rewrite validation ended.
func (m *Metrics) ObserveGuardrail(result string) {
	if m == nil {
		return
	}
	m.GuardrailOutcomes.WithLabelValues(result).Inc()
}

// ObserveCache records a cache lookup: hit, miss or error.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RunStarted increments the active gauge and returns the matching decrement.
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.RunsActive.Inc()
	return m.RunsActive.Dec
}
