package core

import (
	"fmt"
	"time"
)

// ImportResult is the outcome of one validate invocation.
type ImportResult struct {
	ID        string     `json:"id,omitempty"`
	Entity    EntityType `json:"entityType"`
	Mode      Mode       `json:"mode"`
	Delimiter Delimiter  `json:"delimiter"`
	SniffRule string     `json:"sniffRule"`
	HeaderRow bool       `json:"headerRow"`

	Headers []ColumnHeader `json:"headers"`
	Mapping *Resolution    `json:"mapping,omitempty"`

	TotalRows int              `json:"totalRows"`
	Accepted  []AcceptedRecord `json:"accepted"`
	Errors    []RowError       `json:"errors"`
	Warnings  []MappingWarning `json:"warnings,omitempty"`
	Merged    int              `json:"merged,omitempty"`

	// Fatal is set when a structural error aborted the batch. No row was
	// processed and Accepted and Errors are empty.
	Fatal *StructuralError `json:"fatal,omitempty"`

	Fingerprint string    `json:"fingerprint,omitempty"`
	ValidatedAt time.Time `json:"validatedAt"`
}

// AcceptedCount returns the number of accepted records.
func (r *ImportResult) AcceptedCount() int { return len(r.Accepted) }

// RejectedCount returns the number of row errors.
func (r *ImportResult) RejectedCount() int { return len(r.Errors) }

// Failed reports whether the batch was aborted.
func (r *ImportResult) Failed() bool { return r.Fatal != nil }

// Messages returns up to limit human readable reasons in row order. A
// structural error is the only message of an aborted batch. When reasons
// are cut, the last line says how many were left out.
func (r *ImportResult) Messages(limit int) []string {
	if r.Fatal != nil {
		return []string{r.Fatal.Error()}
	}
	n := len(r.Errors)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]string, 0, n+1)
	for i := range n {
		out = append(out, r.Errors[i].Error())
	}
	if rest := len(r.Errors) - n; rest > 0 {
		out = append(out, fmt.Sprintf("... and %d more", rest))
	}
	return out
}

// Summary is a one-line count report.
func (r *ImportResult) Summary() string {
	if r.Fatal != nil {
		return fmt.Sprintf("%s import aborted: %s", r.Entity, r.Fatal.Error())
	}
	s := fmt.Sprintf("%s import: %d rows, %d accepted, %d rejected",
		r.Entity, r.TotalRows, len(r.Accepted), len(r.Errors))
	if r.Merged > 0 {
		s += fmt.Sprintf(", %d merged", r.Merged)
	}
	return s
}
