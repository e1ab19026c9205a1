package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/JonMunkholm/herdbook/internal/logging"
	"github.com/JonMunkholm/herdbook/internal/metrics"
)

// Persister is the downstream persistence collaborator. It receives the
// accepted records of one batch, each tagged with its mode and action, and
// reports a terminal status per record. Partial success is normal.
type Persister interface {
	Persist(ctx context.Context, records []AcceptedRecord) (*PersistenceReport, error)
}

// PersistenceFailure is one record the collaborator could not store.
// Index is the position in the submitted slice; Row is the source row.
type PersistenceFailure struct {
	Index  int        `json:"index"`
	Row    int        `json:"row"`
	Code   ReasonCode `json:"code"`
	Reason string     `json:"reason"`
}

// PersistenceReport is the collaborator's per-batch answer.
type PersistenceReport struct {
	Submitted int                  `json:"submitted"`
	Succeeded int                  `json:"succeeded"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	Failures  []PersistenceFailure `json:"failures,omitempty"`
	Duration  time.Duration        `json:"durationNs"`
}

// Commit hands the accepted records of result to p. Aborted results and
// results with nothing accepted return ErrNothingToCommit.
func Commit(ctx context.Context, result *ImportResult, p Persister) (*PersistenceReport, error) {
	if result == nil || result.Fatal != nil || len(result.Accepted) == 0 {
		return nil, ErrNothingToCommit
	}
	logger := logging.WithFields(ctx, "import_id", result.ID, "entity", result.Entity, "mode", result.Mode)

	start := time.Now()
	report, err := p.Persist(ctx, result.Accepted)
	metrics.RecordStage(string(result.Entity), "persistence", err, time.Since(start))
	if err != nil {
		logger.Error("persistence failed", "error", err)
		return nil, fmt.Errorf("persist %s batch: %w", result.Entity, err)
	}
	report.Duration = time.Since(start)

	for i := range report.Failures {
		f := &report.Failures[i]
		if f.Row == 0 && f.Index >= 0 && f.Index < len(result.Accepted) {
			f.Row = result.Accepted[f.Index].Row
		}
		if f.Code == "" {
			f.Code = ReasonPersistence
		}
	}

	metrics.RecordPersisted(string(result.Entity), "succeeded", report.Succeeded)
	metrics.RecordPersisted(string(result.Entity), "skipped", report.Skipped)
	metrics.RecordPersisted(string(result.Entity), "failed", report.Failed)
	logPersistence(logger, report)
	return report, nil
}

func logPersistence(logger *slog.Logger, r *PersistenceReport) {
	for _, f := range r.Failures {
		logger.Warn("record not persisted", "row", f.Row, "code", f.Code, "reason", f.Reason)
	}
	logger.Info("import committed",
		"submitted", r.Submitted,
		"succeeded", r.Succeeded,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"duration_ms", r.Duration.Milliseconds())
}

// CombinedReport merges pipeline row errors and persistence failures under
// one row numbering, ordered by row and then by stage order.
func CombinedReport(result *ImportResult, report *PersistenceReport) []RowError {
	var out []RowError
	if result != nil {
		out = append(out, result.Errors...)
	}
	if report != nil {
		for _, f := range report.Failures {
			rerr := RowError{
				Row:     f.Row,
				Stage:   StagePersistence,
				Code:    f.Code,
				Message: f.Reason,
			}
			if result != nil && f.Index >= 0 && f.Index < len(result.Accepted) {
				rerr.Value = DisplayKey(result.Accepted[f.Index].Record.NaturalKey())
			}
			out = append(out, rerr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}
