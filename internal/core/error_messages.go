package core

// error_messages.go maps technical errors to operator facing messages with
// a support code.
//
// # Error Codes Reference
//
// Import errors (IMP001-IMP099) abort a whole batch:
//
//	IMP001 - Empty input: nothing to import
//	         Patterns: "empty input"
//	IMP002 - Too few columns for the entity type or entry mode
//	         Patterns: "too few columns"
//	IMP003 - Unreadable workbook or text
//	         Patterns: "unreadable input"
//	IMP004 - File too large
//	         Patterns: "file too large"
//	IMP005 - Unknown entity type
//	         Patterns: "unknown entity type"
//	IMP006 - Unknown mode
//	         Patterns: "unknown mode"
//	IMP007 - Import expired or unknown
//	         Patterns: "import not found"
//	IMP008 - Nothing to commit
//	         Patterns: "nothing to commit"
//
// Mapping errors (MAP001-MAP099):
//
//	MAP001 - Manual mapping references a missing column
//	         Patterns: "invalid mapping"
//	MAP002 - Saved mapping could not be read or written
//	         Patterns: "mapping preference"
//
// Row errors (VAL001-VAL099) are reported per row and never abort:
//
//	VAL001 invalid date, VAL002 invalid number, VAL003 missing required
//	field, VAL004 invalid sex code, VAL005 invalid value, VAL006 no update
//	target, VAL007 inconsistent fields, VAL008 too few columns in a row.
//
//	REC001 - Duplicate natural key within the batch
//
// Persistence errors (DB001-DB099):
//
//	DB001 duplicate key, DB002 value out of range, DB003 not null
//	violation, DB004 connection refused, DB005 timeout, DB006 deadlock.
//
//	RATE001 - Too many requests or concurrent imports
//	REQ001  - Malformed request parameter
//	         Patterns: "invalid query parameter"
//	AUD001  - Audit log not configured
//	         Patterns: "no audit log"
//	ERR000  - Anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // what happened
	Action  string `json:"action"`  // what to do about it
	Code    string `json:"code"`    // support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Import Errors (IMP001-IMP008)
	// =========================================================================
	{"empty input", UserMessage{"There is nothing to import", "Paste rows or choose a file with data", "IMP001"}},
	{"too few columns", UserMessage{"The sheet has too few columns", "Check the delimiter and that every required column is present", "IMP002"}},
	{"unreadable input", UserMessage{"The file could not be read", "Save the sheet as .xlsx or paste it as text", "IMP003"}},
	{"file too large", UserMessage{"File exceeds the maximum size", "Split the sheet into smaller batches", "IMP004"}},
	{"unknown entity type", UserMessage{"Unknown record type", "Choose one of the listed record types", "IMP005"}},
	{"unknown mode", UserMessage{"Unknown import mode", "Use create, overwrite or update", "IMP006"}},
	{"import not found", UserMessage{"This import is no longer available", "Validate the sheet again", "IMP007"}},
	{"nothing to commit", UserMessage{"No accepted rows to save", "Fix the rejected rows and validate again", "IMP008"}},

	// =========================================================================
	// Mapping Errors (MAP001-MAP002)
	// =========================================================================
	{"invalid mapping", UserMessage{"The column mapping does not fit this sheet", "Pick an existing column for every enabled field", "MAP001"}},
	{"mapping preference", UserMessage{"The saved mapping could not be used", "Switch to automatic mapping or save the mapping again", "MAP002"}},

	// =========================================================================
	// Row Errors (VAL001-VAL008, REC001)
	// =========================================================================
	{"invalid date", UserMessage{"Invalid date", "Use DD/MM/YYYY or YYYY-MM-DD", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number", "Remove letters and use one decimal separator", "VAL002"}},
	{"missing required field", UserMessage{"Required field is empty", "Fill in the field or map its column", "VAL003"}},
	{"invalid sex", UserMessage{"Unrecognized sex code", "Use M or F", "VAL004"}},
	{"invalid enum", UserMessage{"Value is not in the allowed list", "Check the allowed values for this field", "VAL005"}},
	{"no update target", UserMessage{"Nothing to update on this row", "Fill in sire, dam or host mother", "VAL006"}},
	{"is before", UserMessage{"Dates are out of order", "Check the event dates on this row", "VAL007"}},
	{"is set but", UserMessage{"A dependent field is missing", "Fill in the related field", "VAL007"}},
	{"expected at least", UserMessage{"Row has too few columns", "Separate every value with the delimiter", "VAL008"}},
	{"duplicate natural key", UserMessage{"This animal appears more than once in the batch", "Keep one row per series and RG, or use update mode", "REC001"}},

	// =========================================================================
	// Persistence Errors (DB001-DB006)
	// =========================================================================
	{"duplicate key", UserMessage{"A record with this key already exists", "Use overwrite or update mode", "DB001"}},
	{"out of range", UserMessage{"Value is too large for storage", "Check numeric fields on this row", "DB002"}},
	{"value too long", UserMessage{"Value is too long for storage", "Shorten the text on this row", "DB002"}},
	{"not-null constraint", UserMessage{"A stored field cannot be empty", "Fill in the identity fields", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB005"}},
	{"context deadline exceeded", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB006"}},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"too many concurrent imports", UserMessage{"System busy: too many imports in progress", "Please wait a moment and try again", "RATE001"}},

	// =========================================================================
	// Requests and Audit (REQ001, AUD001)
	// =========================================================================
	{"invalid query parameter", UserMessage{"A request parameter is malformed", "Use RFC 3339 times and non-negative numbers", "REQ001"}},
	{"no audit log", UserMessage{"Import history is not available", "Ask an administrator to enable the audit log", "AUD001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; it returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
