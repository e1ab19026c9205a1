// Package metrics records operational metrics of the import pipeline
// through a pluggable Backend.
//
// The default backend is a no-op, so instrumented code is always safe to
// call. Concrete metric systems live in subpackages (see promexport) and
// are installed once at startup with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
}

// Metric names shared with backends.
const (
	StageTotal       = "herdbook_stage_total"
	StageDuration    = "herdbook_stage_duration_seconds"
	RowsTotal        = "herdbook_rows_total"
	PersistenceTotal = "herdbook_persisted_records_total"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// RecordStage counts one run of a pipeline stage and observes its duration.
func RecordStage(entity, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"entity": entity,
		"stage":  stage,
		"status": status,
	}
	b := current()
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds n rows with the given outcome: "accepted", "rejected",
// "merged".
func RecordRows(entity, outcome string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{
		"entity":  entity,
		"outcome": outcome,
	})
}

// RecordPersisted adds n records with a persistence status: "succeeded",
// "skipped", "failed".
func RecordPersisted(entity, status string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(PersistenceTotal, float64(n), Labels{
		"entity": entity,
		"status": status,
	})
}
