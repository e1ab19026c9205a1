package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Querier is the subset of *pgxpool.Pool the Postgres log uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres keeps entries in the import_audit table.
type Postgres struct {
	db  Querier
	now func() time.Time
}

// NewPostgres returns a log over db.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

var _ core.AuditLog = (*Postgres)(nil)

const auditColumns = `id, action, severity, entity_type, mode, import_id, fingerprint,
	client_ip, request_id, total_rows, accepted, rejected, stored, failed, reason, created_at`

func (p *Postgres) Append(ctx context.Context, e core.AuditEntry) error {
	fill(&e, p.now)
	_, err := p.db.Exec(ctx,
		`INSERT INTO import_audit (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, string(e.Action), string(e.Severity), string(e.Entity), string(e.Mode),
		e.ImportID, e.Fingerprint, e.ClientIP, e.RequestID,
		e.TotalRows, e.Accepted, e.Rejected, e.Stored, e.Failed, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	var wb whereBuilder
	wb.add("entity_type", string(f.Entity))
	wb.add("action", string(f.Action))
	wb.add("import_id", f.ImportID)
	if !f.StartTime.IsZero() {
		wb.addCond("created_at >= $%d", f.StartTime)
	}
	if !f.EndTime.IsZero() {
		wb.addCond("created_at < $%d", f.EndTime)
	}
	where, args := wb.build()

	query := `SELECT ` + auditColumns + ` FROM import_audit` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]core.AuditEntry, 0)
	for rows.Next() {
		var (
			e                          core.AuditEntry
			action, severity, et, mode string
		)
		if err := rows.Scan(&e.ID, &action, &severity, &et, &mode, &e.ImportID, &e.Fingerprint,
			&e.ClientIP, &e.RequestID, &e.TotalRows, &e.Accepted, &e.Rejected, &e.Stored, &e.Failed,
			&e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = core.AuditAction(action)
		e.Severity = core.AuditSeverity(severity)
		e.Entity = core.EntityType(et)
		e.Mode = core.Mode(mode)
		out = append(out, e)
	}
	return out, rows.Err()
}

// whereBuilder collects AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends "col = $n" unless value is empty.
func (w *whereBuilder) add(col, value string) {
	if value == "" {
		return
	}
	w.addCond(col+" = $%d", value)
}

// addCond appends a condition whose single placeholder is written as $%d.
func (w *whereBuilder) addCond(format string, value any) {
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) build() (string, []any) {
	if len(w.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conds, " AND "), w.args
}
