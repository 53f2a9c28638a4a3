// Package prompush implements a Prometheus backend for the metrics package.
//
// Collected series live in a private registry. They can be scraped through
// Handler, pushed to a Pushgateway on Flush, or both. A Backend created with
// an empty gateway URL is scrape-only and Flush is a no-op.
package prompush

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"agereport/internal/metrics"
)

// Backend is a Prometheus metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091; empty disables push
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec // ingest_step_total
	stepDuration  *prometheus.SummaryVec // ingest_step_duration_seconds
	recordCounter *prometheus.CounterVec // ingest_records_total
	runCounter    *prometheus.CounterVec // ingest_runs_total
	ageShare      *prometheus.GaugeVec   // ingest_age_group_percent
}

// NewBackend constructs a Prometheus backend. jobName defaults to
// "user_ingest".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if jobName == "" {
		jobName = "user_ingest"
	}
	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Ingestion step executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of ingestion steps in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (decoded, short, surplus, inserted).",
		}, []string{"kind"}),
		runCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RunsTotal,
			Help: "Finished ingestion runs by status.",
		}, []string{"status"}),
		ageShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metrics.AgeShare,
			Help: "Share of stored users per age group after the latest run.",
		}, []string{"group"}),
	}
	for _, c := range []prometheus.Collector{b.stepCounter, b.stepDuration, b.recordCounter, b.runCounter, b.ageShare} {
		if err := b.reg.Register(c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.recordCounter != nil {
			b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.RunsTotal:
		if b.runCounter != nil {
			b.runCounter.WithLabelValues(labels["status"]).Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

func (b *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	if name != metrics.AgeShare || b.ageShare == nil {
		return
	}
	b.ageShare.WithLabelValues(labels["group"]).Set(value)
}

// Flush pushes the current registry to the Pushgateway, if one is configured.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{})
}
