// Package metrics exposes slitting ledger activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/model"
)

const namespace = "rollslit"

// Metrics records ledger events. It satisfies engine.Recorder.
type Metrics struct {
	committed   prometheus.Counter
	reversed    prometheus.Counter
	outputRolls prometheus.Counter
	consumedKg  prometheus.Counter
	wastageKg   prometheus.Counter
	failures    *prometheus.CounterVec
	wastagePct  prometheus.Histogram
}

var _ engine.Recorder = (*Metrics)(nil)

// New creates the collectors and registers them with reg. A nil reg uses
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_committed_total",
			Help:      "Slitting jobs committed.",
		}),
		reversed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_reversed_total",
			Help:      "Slitting jobs reversed.",
		}),
		outputRolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_rolls_total",
			Help:      "Child rolls produced by committed jobs.",
		}),
		consumedKg: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumed_kg_total",
			Help:      "Mother roll mass consumed by committed jobs.",
		}),
		wastageKg: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wastage_kg_total",
			Help:      "Wastage mass recorded by committed jobs.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_failures_total",
			Help:      "Ledger integrity failures by operation.",
		}, []string{"op"}),
		wastagePct: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_wastage_percent",
			Help:      "Wastage as a share of consumed mass per committed job.",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 50},
		}),
	}
	reg.MustRegister(m.committed, m.reversed, m.outputRolls, m.consumedKg, m.wastageKg, m.failures, m.wastagePct)
	return m
}

func (m *Metrics) JobCommitted(job model.SlittingJob) {
	m.committed.Inc()
	m.outputRolls.Add(float64(len(job.OutputRolls)))
	m.consumedKg.Add(job.ConsumedKg)
	m.wastageKg.Add(job.WastageKg)
	if job.ConsumedKg > 0 {
		m.wastagePct.Observe(job.WastageKg / job.ConsumedKg * 100)
	}
}

func (m *Metrics) JobReversed(model.SlittingJob) {
	m.reversed.Inc()
}

func (m *Metrics) LedgerFailure(op string) {
	m.failures.WithLabelValues(op).Inc()
}
