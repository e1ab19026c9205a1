// Package promexport is a Prometheus backend for the metrics package. It
// registers its collectors on a private registry and serves them for
// scraping through Handler.
package promexport

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/herdbook/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend implements metrics.Backend with client_golang collectors.
type Backend struct {
	reg *prometheus.Registry

	stageCounter  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	rowCounter    *prometheus.CounterVec
	persisted     *prometheus.CounterVec
}

// New builds a backend. When withRuntime is set the Go runtime and
// process collectors are registered too.
func New(withRuntime bool) (*Backend, error) {
	reg := prometheus.NewRegistry()
	b := &Backend{
		reg: reg,
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions by entity, stage and status.",
		}, []string{"entity", "stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StageDuration,
			Help:    "Pipeline stage duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"entity", "stage", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Validated rows by entity and outcome.",
		}, []string{"entity", "outcome"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.PersistenceTotal,
			Help: "Records handed to persistence by entity and status.",
		}, []string{"entity", "status"}),
	}

	cs := []prometheus.Collector{b.stageCounter, b.stageDuration, b.rowCounter, b.persisted}
	if withRuntime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("promexport: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		b.stageCounter.WithLabelValues(labels["entity"], labels["stage"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["entity"], labels["outcome"]).Add(delta)
	case metrics.PersistenceTotal:
		b.persisted.WithLabelValues(labels["entity"], labels["status"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration {
		return
	}
	b.stageDuration.WithLabelValues(labels["entity"], labels["stage"], labels["status"]).Observe(value)
}

// Registry exposes the private registry, mainly for tests.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{})
}
