// Package audit stores the import event log: every validation, commit,
// discard and mapping change the service performs.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Memory keeps entries in process, bounded to the most recent max.
type Memory struct {
	mu      sync.RWMutex
	entries []core.AuditEntry
	max     int
	now     func() time.Time
}

// NewMemory returns a log holding at most max entries; max <= 0 keeps
// everything.
func NewMemory(max int) *Memory {
	return &Memory{max: max, now: time.Now}
}

var _ core.AuditLog = (*Memory)(nil)

func (m *Memory) Append(_ context.Context, e core.AuditEntry) error {
	fill(&e, m.now)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = append(m.entries[:0:0], m.entries[len(m.entries)-m.max:]...)
	}
	return nil
}

func (m *Memory) List(_ context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.AuditEntry, 0)
	skipped := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if !f.Matches(e) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// fill sets the id and timestamp of a new entry.
func fill(e *core.AuditEntry, now func() time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
}
