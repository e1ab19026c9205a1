package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/herdbook/internal/core"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS mapping_preferences (
	entity_type TEXT PRIMARY KEY,
	preference  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLite keeps preferences in a local database file. The CLI uses it so
// operators keep their mappings between runs without a server.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex // single writer
}

// OpenSQLite opens (and creates when missing) the store at dsn, for
// example "herdbook-prefs.db" or "file::memory:?cache=shared".
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// DSN is private to its connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

var _ core.PreferenceStore = (*SQLite)(nil)

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) LoadMapping(ctx context.Context, et core.EntityType) (core.MappingPreference, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT preference FROM mapping_preferences WHERE entity_type = ?`, string(et)).Scan(&data)
	if err == sql.ErrNoRows {
		return core.MappingPreference{}, false, nil
	}
	if err != nil {
		return core.MappingPreference{}, false, fmt.Errorf("sqlite: load %s: %w", et, err)
	}
	p, ok := core.DecodeMappingPreference([]byte(data))
	return p, ok, nil
}

func (s *SQLite) LoadMappings(ctx context.Context) (map[core.EntityType]core.MappingPreference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_type, preference FROM mapping_preferences`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[core.EntityType]core.MappingPreference)
	for rows.Next() {
		var et, data string
		if err := rows.Scan(&et, &data); err != nil {
			return nil, fmt.Errorf("sqlite: scan preference: %w", err)
		}
		if p, ok := core.DecodeMappingPreference([]byte(data)); ok {
			out[core.EntityType(et)] = p
		}
	}
	return out, rows.Err()
}

func (s *SQLite) SaveMapping(ctx context.Context, et core.EntityType, p core.MappingPreference) error {
	data, err := core.EncodeMappingPreference(p)
	if err != nil {
		return err
	}
	return s.saveRaw(ctx, et, string(data))
}

func (s *SQLite) saveRaw(ctx context.Context, et core.EntityType, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mapping_preferences (entity_type, preference, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (entity_type) DO UPDATE SET preference = excluded.preference, updated_at = excluded.updated_at`,
		string(et), data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite: save %s: %w", et, err)
	}
	return nil
}
