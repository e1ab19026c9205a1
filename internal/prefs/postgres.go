package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Querier is the subset of *pgxpool.Pool the Postgres store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps preferences in the mapping_preferences table. A save is
// one upsert statement, so concurrent writers never leave a partial entry
// and the last write wins.
type Postgres struct {
	db Querier
}

// NewPostgres returns a store over db.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

var _ core.PreferenceStore = (*Postgres)(nil)

func (s *Postgres) LoadMapping(ctx context.Context, et core.EntityType) (core.MappingPreference, bool, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT preference::text FROM mapping_preferences WHERE entity_type = $1`, string(et)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MappingPreference{}, false, nil
	}
	if err != nil {
		return core.MappingPreference{}, false, fmt.Errorf("load mapping preference: %w", err)
	}
	p, ok := core.DecodeMappingPreference(data)
	return p, ok, nil
}

func (s *Postgres) LoadMappings(ctx context.Context) (map[core.EntityType]core.MappingPreference, error) {
	rows, err := s.db.Query(ctx, `SELECT entity_type, preference::text FROM mapping_preferences`)
	if err != nil {
		return nil, fmt.Errorf("load mapping preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[core.EntityType]core.MappingPreference)
	for rows.Next() {
		var et string
		var data []byte
		if err := rows.Scan(&et, &data); err != nil {
			return nil, fmt.Errorf("scan mapping preference: %w", err)
		}
		if p, ok := core.DecodeMappingPreference(data); ok {
			out[core.EntityType(et)] = p
		}
	}
	return out, rows.Err()
}

func (s *Postgres) SaveMapping(ctx context.Context, et core.EntityType, p core.MappingPreference) error {
	data, err := core.EncodeMappingPreference(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO mapping_preferences (entity_type, preference, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (entity_type) DO UPDATE SET preference = EXCLUDED.preference, updated_at = now()`,
		string(et), string(data))
	if err != nil {
		return fmt.Errorf("save mapping preference: %w", err)
	}
	return nil
}
