// Package schema describes the Postgres tables behind each entity type and
// builds the upsert statement for each operation mode.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// ColumnType is the Postgres type of a column.
type ColumnType string

const (
	ColText    ColumnType = "text"
	ColDate    ColumnType = "date"
	ColInteger ColumnType = "integer"
	ColNumeric ColumnType = "numeric"
	ColJSON    ColumnType = "jsonb"
)

// Column is one stored column. Key columns form the conflict target.
type Column struct {
	Name string
	Type ColumnType
	Key  bool
}

// Table maps an entity type onto its Postgres table.
type Table struct {
	Entity  core.EntityType
	Name    string
	Columns []Column

	// Args returns the statement arguments of rec in column order.
	Args func(rec core.Record) ([]any, error)
}

var (
	tables   = make(map[core.EntityType]*Table)
	tablesMu sync.RWMutex
)

// Register adds a table. Panics on duplicates.
func Register(t *Table) {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	if _, exists := tables[t.Entity]; exists {
		panic(fmt.Sprintf("table already registered for %s", t.Entity))
	}
	tables[t.Entity] = t
}

// For returns the table of an entity type.
func For(et core.EntityType) (*Table, bool) {
	tablesMu.RLock()
	defer tablesMu.RUnlock()
	t, ok := tables[et]
	return t, ok
}

// All returns the registered tables in entity order.
func All() []*Table {
	tablesMu.RLock()
	defer tablesMu.RUnlock()
	out := make([]*Table, 0, len(tables))
	for _, et := range core.EntityTypes {
		if t, ok := tables[et]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (t *Table) keyColumns() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.Key {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// UpsertSQL returns the insert statement for mode. Rows whose key already
// exists are left alone in create mode, replaced column by column in
// overwrite mode and only have their NULL columns filled in update mode.
// A statement that affected no row means the record was skipped.
func (t *Table) UpsertSQL(mode core.Mode) string {
	names := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	var sets []string
	for i, c := range t.Columns {
		names[i] = c.Name
		params[i] = fmt.Sprintf("$%d::%s", i+1, c.Type)
		if c.Key {
			continue
		}
		switch {
		case mode == core.ModeReconcileUpdate && c.Type == ColJSON:
			sets = append(sets, fmt.Sprintf("%[1]s = COALESCE(EXCLUDED.%[1]s, '{}'::jsonb) || COALESCE(%[2]s.%[1]s, '{}'::jsonb)", c.Name, t.Name))
		case mode == core.ModeReconcileUpdate:
			sets = append(sets, fmt.Sprintf("%[1]s = COALESCE(%[2]s.%[1]s, EXCLUDED.%[1]s)", c.Name, t.Name))
		default:
			sets = append(sets, fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", c.Name))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		t.Name, strings.Join(names, ", "), strings.Join(params, ", "), strings.Join(t.keyColumns(), ", "))
	if mode == core.ModeCreate || len(sets) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}
	fmt.Fprintf(&b, "DO UPDATE SET %s, updated_at = now()", strings.Join(sets, ", "))
	return b.String()
}

// ============================================================================
// Argument helpers
// ============================================================================

func key(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func text(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func sex(s *core.Sex) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func date(d *core.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func integer(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func numeric(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func extras(m map[string]string) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func wrongRecord(want core.EntityType, rec core.Record) error {
	return fmt.Errorf("%s table cannot store %T", want, rec)
}
