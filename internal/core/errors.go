package core

import (
	"errors"
	"fmt"
	"strings"
)

// Structural errors abort a batch before any row is processed.
var (
	ErrEmptyInput      = errors.New("empty input")
	ErrTooFewColumns   = errors.New("too few columns")
	ErrInvalidMapping  = errors.New("invalid mapping")
	ErrUnknownEntity   = errors.New("unknown entity type")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrUnreadableInput = errors.New("unreadable input")
)

// Service level errors.
var (
	ErrImportNotFound  = errors.New("import not found")
	ErrNothingToCommit = errors.New("nothing to commit")
)

// StructuralError is the single top-level error of an aborted batch.
type StructuralError struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

func (e *StructuralError) Error() string {
	return e.Message
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(code ReasonCode, err error, format string, args ...any) *StructuralError {
	msg := err.Error()
	if format != "" {
		msg = fmt.Sprintf("%s: %s", err.Error(), fmt.Sprintf(format, args...))
	}
	return &StructuralError{Code: code, Message: msg, Err: err}
}

// ReasonCode is a machine-distinguishable failure reason.
type ReasonCode string

const (
	ReasonEmptyInput     ReasonCode = "empty_input"
	ReasonTooFewColumns  ReasonCode = "too_few_columns"
	ReasonInvalidMapping ReasonCode = "invalid_mapping"
	ReasonUnreadable     ReasonCode = "unreadable_input"

	ReasonInvalidDate     ReasonCode = "invalid_date"
	ReasonInvalidNumber   ReasonCode = "invalid_number"
	ReasonInvalidSex      ReasonCode = "invalid_sex"
	ReasonInvalidValue    ReasonCode = "invalid_value"
	ReasonMissingRequired ReasonCode = "missing_required_field"
	ReasonNoUpdateTarget  ReasonCode = "no_update_target"
	ReasonInconsistent    ReasonCode = "inconsistent_fields"
	ReasonDuplicateKey    ReasonCode = "duplicate_natural_key"
	ReasonPersistence     ReasonCode = "persistence_failed"
)

// Stage names the pipeline stage that produced a RowError.
type Stage string

const (
	StageNormalize   Stage = "normalize"
	StageValidate    Stage = "validate"
	StageReconcile   Stage = "reconcile"
	StagePersistence Stage = "persistence"
)

// RowError is a row-scoped failure. It never aborts the batch.
type RowError struct {
	Row     int        `json:"row"`
	Stage   Stage      `json:"stage"`
	Code    ReasonCode `json:"code"`
	Field   string     `json:"field,omitempty"`
	Value   string     `json:"value,omitempty"`
	Message string     `json:"message"`
	Raw     []string   `json:"raw,omitempty"`
}

// Error formats the reason with its row number and, when present, the
// offending raw value.
func (e *RowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "row %d: %s", e.Row, e.Message)
	if e.Value != "" && !strings.Contains(e.Message, e.Value) {
		fmt.Fprintf(&b, " (value %q)", e.Value)
	}
	return b.String()
}

func rowError(stage Stage, code ReasonCode, field, value, format string, args ...any) *RowError {
	return &RowError{
		Stage:   stage,
		Code:    code,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewRuleError builds a validation RowError for entity rules.
func NewRuleError(code ReasonCode, field, value, format string, args ...any) *RowError {
	return rowError(StageValidate, code, field, value, format, args...)
}
