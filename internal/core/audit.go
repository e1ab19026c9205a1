package core

import (
	"context"
	"errors"
	"time"
)

// AuditAction names what happened to an import.
type AuditAction string

const (
	ActionValidate    AuditAction = "validate"
	ActionAbort       AuditAction = "abort"
	ActionCommit      AuditAction = "commit"
	ActionDiscard     AuditAction = "discard"
	ActionMappingSave AuditAction = "mapping_save"
)

// AuditSeverity ranks entries for review.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// ErrNoAuditLog is returned by AuditLog when no log is configured.
var ErrNoAuditLog = errors.New("no audit log configured")

// DefaultAuditLimit caps an audit query without a limit.
const DefaultAuditLimit = 100

// AuditEntry is one recorded import event.
type AuditEntry struct {
	ID          string        `json:"id"`
	Action      AuditAction   `json:"action"`
	Severity    AuditSeverity `json:"severity"`
	Entity      EntityType    `json:"entityType,omitempty"`
	Mode        Mode          `json:"mode,omitempty"`
	ImportID    string        `json:"importId,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	ClientIP    string        `json:"clientIp,omitempty"`
	RequestID   string        `json:"requestId,omitempty"`
	TotalRows   int           `json:"totalRows"`
	Accepted    int           `json:"accepted"`
	Rejected    int           `json:"rejected"`
	Stored      int           `json:"stored"`
	Failed      int           `json:"failed"`
	Reason      string        `json:"reason,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// AuditFilter selects entries; zero fields match everything. Entries come
// back newest first.
type AuditFilter struct {
	Entity    EntityType
	Action    AuditAction
	ImportID  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Matches reports whether e passes the filter, ignoring paging.
func (f AuditFilter) Matches(e AuditEntry) bool {
	switch {
	case f.Entity != "" && e.Entity != f.Entity:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.ImportID != "" && e.ImportID != f.ImportID:
		return false
	case !f.StartTime.IsZero() && e.CreatedAt.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && !e.CreatedAt.Before(f.EndTime):
		return false
	}
	return true
}

// AuditLog stores import events. Append fills ID and CreatedAt when they
// are empty.
type AuditLog interface {
	Append(ctx context.Context, e AuditEntry) error
	List(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionCommit:
		return SeverityHigh
	case ActionMappingSave, ActionDiscard:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type clientIPKey struct{}

// WithClientIP attaches the caller's address to ctx for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the address set by WithClientIP.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
