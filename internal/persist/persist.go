// Package persist stores accepted records in Postgres.
//
// One batch is one transaction. Each record runs inside its own savepoint,
// so a constraint violation on one record rolls back only that record and
// the rest of the batch still commits. Partial success is reported per
// record, never as an error of the whole batch.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/logging"
	"github.com/JonMunkholm/herdbook/internal/schema"
)

// ContextCheckInterval is how often (in records) cancellation is checked.
var ContextCheckInterval = 100

// TxBeginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Persister is the Postgres persistence collaborator.
type Persister struct {
	db TxBeginner
}

// NewPersister returns a Persister writing through db.
func NewPersister(db TxBeginner) *Persister {
	return &Persister{db: db}
}

var _ core.Persister = (*Persister)(nil)

// Persist writes records in one transaction and reports each record as
// succeeded, skipped (its key already existed in create mode) or failed.
// An error is returned only when the transaction itself cannot proceed;
// nothing is committed then.
func (p *Persister) Persist(ctx context.Context, records []core.AcceptedRecord) (*core.PersistenceReport, error) {
	report := &core.PersistenceReport{Submitted: len(records)}
	if len(records) == 0 {
		return report, nil
	}
	logger := logging.FromContext(ctx)

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	statements := make(map[string]string)
	for i, rec := range records {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		table, ok := schema.For(rec.Entity)
		if !ok {
			report.Failures = append(report.Failures, failure(i, rec, core.ErrUnknownEntity))
			continue
		}
		args, err := table.Args(rec.Record)
		if err != nil {
			report.Failures = append(report.Failures, failure(i, rec, err))
			continue
		}
		stmtKey := string(rec.Entity) + "/" + string(rec.Mode)
		sql, ok := statements[stmtKey]
		if !ok {
			sql = table.UpsertSQL(rec.Mode)
			statements[stmtKey] = sql
		}

		// PostgreSQL aborts the whole transaction on any error; the
		// savepoint confines it to this record.
		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return nil, fmt.Errorf("create savepoint for row %d: %w", rec.Row, err)
		}

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				return nil, fmt.Errorf("rollback savepoint for row %d: %w", rec.Row, rbErr)
			}
			logger.Debug("record rejected by database", "row", rec.Row, "table", table.Name, "error", err)
			report.Failures = append(report.Failures, failure(i, rec, err))
			continue
		}

		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
			return nil, fmt.Errorf("release savepoint for row %d: %w", rec.Row, err)
		}
		if tag.RowsAffected() == 0 {
			report.Skipped++
		} else {
			report.Succeeded++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	report.Failed = len(report.Failures)
	return report, nil
}

func failure(i int, rec core.AcceptedRecord, err error) core.PersistenceFailure {
	return core.PersistenceFailure{
		Index:  i,
		Row:    rec.Row,
		Code:   core.ReasonPersistence,
		Reason: describe(err),
	}
}

// describe turns a driver error into a message naming the constraint or
// column at fault.
func describe(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err.Error()
	}
	switch {
	case pgErr.ConstraintName != "":
		return fmt.Sprintf("%s (constraint %s)", pgErr.Message, pgErr.ConstraintName)
	case pgErr.ColumnName != "":
		return fmt.Sprintf("%s (column %s)", pgErr.Message, pgErr.ColumnName)
	default:
		return pgErr.Message
	}
}
