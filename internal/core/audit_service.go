package core

import (
	"context"

	"github.com/JonMunkholm/herdbook/internal/logging"
)

// SetAuditLog makes the service record import events in log. A nil log
// turns recording off.
func (s *Service) SetAuditLog(log AuditLog) {
	s.audit = log
}

// AuditLog returns recorded events matching f, newest first.
func (s *Service) AuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if s.audit == nil {
		return nil, ErrNoAuditLog
	}
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.audit.List(ctx, f)
}

// record appends an entry. Audit failures never fail the import; they are
// logged and dropped.
func (s *Service) record(ctx context.Context, e AuditEntry) {
	if s.audit == nil {
		return
	}
	e.Severity = determineSeverity(e.Action)
	e.ClientIP = ClientIPFrom(ctx)
	e.RequestID = logging.RequestID(ctx)
	if err := s.audit.Append(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit entry dropped",
			"action", e.Action, "import_id", e.ImportID, "error", err)
	}
}

// resultEntry describes a validated batch.
func resultEntry(action AuditAction, r *ImportResult) AuditEntry {
	e := AuditEntry{
		Action:      action,
		Entity:      r.Entity,
		Mode:        r.Mode,
		ImportID:    r.ID,
		Fingerprint: r.Fingerprint,
		TotalRows:   r.TotalRows,
		Accepted:    len(r.Accepted),
		Rejected:    len(r.Errors),
	}
	if r.Fatal != nil {
		e.Reason = string(r.Fatal.Code)
	}
	return e
}

// commitEntry describes a finished commit.
func commitEntry(r *ImportResult, report *PersistenceReport) AuditEntry {
	e := resultEntry(ActionCommit, r)
	e.Stored = report.Succeeded
	e.Failed = report.Failed
	return e
}
