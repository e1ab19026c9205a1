package core

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Reconciliation is the reconciler's output for one batch.
type Reconciliation struct {
	Accepted []AcceptedRecord
	Errors   []RowError
	Merged   int
}

// Reconcile consumes the per-row outcomes in row order. Accepted records
// whose natural key repeats an earlier accepted record are rejected as
// duplicates, or merged into it when mode allows merging. Each surviving
// record is tagged with mode and its persistence action.
//
// Reconcile must only run once every row has reached a terminal outcome.
func Reconcile(outcomes []ValidationOutcome, entity EntityType, mode Mode) Reconciliation {
	var out Reconciliation
	index := make(map[string]int)

	for _, o := range outcomes {
		if !o.Accepted {
			if o.Error != nil {
				out.Errors = append(out.Errors, *o.Error)
			}
			continue
		}

		key := o.Record.NaturalKey()
		pos, dup := index[key]
		if !dup {
			index[key] = len(out.Accepted)
			out.Accepted = append(out.Accepted, AcceptedRecord{
				Row:        o.Row,
				SourceRows: []int{o.Row},
				Entity:     entity,
				Mode:       mode,
				Action:     mode.PersistAction(),
				Record:     o.Record,
			})
			continue
		}

		first := &out.Accepted[pos]
		if mode.MergesDuplicates() {
			MergeRecord(first.Record, o.Record)
			first.SourceRows = append(first.SourceRows, o.Row)
			out.Merged++
			continue
		}

		display := DisplayKey(key)
		out.Errors = append(out.Errors, RowError{
			Row:     o.Row,
			Stage:   StageReconcile,
			Code:    ReasonDuplicateKey,
			Value:   display,
			Message: fmt.Sprintf("duplicate natural key %s (first seen on row %d)", display, first.Row),
			Raw:     o.Raw,
		})
	}
	return out
}

// Fingerprint hashes the canonical JSON of the accepted records. Two runs
// over the same batch and configuration produce the same fingerprint.
func Fingerprint(accepted []AcceptedRecord) string {
	type entry struct {
		Key    string `json:"key"`
		Action string `json:"action"`
		Record Record `json:"record"`
	}
	entries := make([]entry, len(accepted))
	for i, a := range accepted {
		entries[i] = entry{Key: a.Record.NaturalKey(), Action: a.Action, Record: a.Record}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}
