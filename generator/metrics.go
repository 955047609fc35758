package generator

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records stage and run outcomes in Prometheus.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageCalls    *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "story_stage_duration_seconds",
				Help:    "Duration of completion calls per stage",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		stageCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_stage_calls_total",
				Help: "Completion calls per stage and result",
			},
			[]string{"stage", "result"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "story_run_duration_seconds",
				Help:    "Duration of full four-stage pipeline runs",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		),
	}
	reg.MustRegister(m.stageDuration, m.stageCalls, m.runs, m.runDuration)
	return m
}

// Hooks returns callbacks that feed the collectors.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnStageDone: func(_ context.Context, e *StageEvent) {
			m.stageDuration.WithLabelValues(e.Stage).Observe(e.Duration.Seconds())
			m.stageCalls.WithLabelValues(e.Stage, result(e.Err)).Inc()
		},
		OnRunDone: func(_ context.Context, e *RunEvent) {
			m.runs.WithLabelValues(result(e.Err)).Inc()
			if e.Err == nil {
				m.runDuration.Observe(e.Duration.Seconds())
			}
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
