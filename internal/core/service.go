package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/herdbook/internal/logging"
)

// ErrNoPersister is returned by Commit when the service was built without
// a persistence collaborator.
var ErrNoPersister = errors.New("no persistence configured")

// PreferenceStore keeps one mapping preference per entity type. Writes
// replace the whole entry; the last write wins. Entries that cannot be
// decoded are reported as missing.
type PreferenceStore interface {
	LoadMapping(ctx context.Context, et EntityType) (MappingPreference, bool, error)
	LoadMappings(ctx context.Context) (map[EntityType]MappingPreference, error)
	SaveMapping(ctx context.Context, et EntityType, p MappingPreference) error
}

// ServiceConfig holds the service limits. Zero values fall back to defaults.
type ServiceConfig struct {
	MaxInputBytes     int64
	Workers           int
	MaxReportedErrors int
	MaxConcurrent     int
	MaxWait           time.Duration
	Timeout           time.Duration
	PendingTTL        time.Duration
	DefaultMode       Mode
}

// DefaultPendingTTL is how long a validated import waits for its commit.
const DefaultPendingTTL = 30 * time.Minute

// DefaultImportTimeout bounds one validate or commit call.
const DefaultImportTimeout = 5 * time.Minute

// Service runs imports for a frontend: it validates batches, keeps each
// result pending under an id until it is committed or discarded, and
// manages mapping preferences.
type Service struct {
	persister Persister
	prefs     PreferenceStore
	audit     AuditLog
	limiter   *ImportLimiter
	cfg       ServiceConfig
	now       func() time.Time

	mu      sync.RWMutex
	pending map[string]*pendingImport
}

type pendingImport struct {
	result  *ImportResult
	expires time.Time
}

// CommitOutcome is the answer to a commit: the collaborator's report and
// the combined row report across pipeline and persistence stages.
type CommitOutcome struct {
	ImportID string             `json:"importId"`
	Report   *PersistenceReport `json:"report"`
	Combined []RowError         `json:"combined"`
}

// NewService builds a service. persister and prefs may be nil: without a
// persister Commit fails, without a store every import maps automatically
// unless the caller passes a manual mapping.
func NewService(persister Persister, prefs PreferenceStore, cfg ServiceConfig) *Service {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = ModeCreate
	}
	return &Service{
		persister: persister,
		prefs:     prefs,
		limiter:   NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:       cfg,
		now:       time.Now,
		pending:   make(map[string]*pendingImport),
	}
}

// Entities returns the registered entity definitions.
func (s *Service) Entities() []*EntityDefinition {
	return All()
}

// Validate runs one batch. Stored preferences are read once here, at the
// start of the session, and travel in the configuration. opts are applied
// after the service defaults. A result that is not aborted is kept pending
// under result.ID for Commit.
func (s *Service) Validate(ctx context.Context, src Source, opts ...ConfigOption) (*ImportResult, error) {
	if s.cfg.MaxInputBytes > 0 && int64(len(src.Data)) > s.cfg.MaxInputBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(src.Data), s.cfg.MaxInputBytes)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	base := []ConfigOption{
		WithMode(s.cfg.DefaultMode),
		WithPreferences(s.loadPreferences(ctx)),
	}
	if s.cfg.Workers > 0 {
		base = append(base, WithWorkers(s.cfg.Workers))
	}
	if s.cfg.MaxReportedErrors > 0 {
		base = append(base, WithMaxReportedErrors(s.cfg.MaxReportedErrors))
	}
	cfg := NewImportConfiguration(append(base, opts...)...)

	result, err := Validate(ctx, src, cfg)
	if result == nil {
		return nil, err
	}
	result.ID = uuid.NewString()
	if err != nil {
		s.record(ctx, resultEntry(ActionAbort, result))
		return result, err
	}
	s.record(ctx, resultEntry(ActionValidate, result))

	s.mu.Lock()
	s.pending[result.ID] = &pendingImport{result: result, expires: s.now().Add(s.cfg.PendingTTL)}
	s.mu.Unlock()
	return result, nil
}

func (s *Service) loadPreferences(ctx context.Context) map[EntityType]MappingPreference {
	if s.prefs == nil {
		return nil
	}
	prefs, err := s.prefs.LoadMappings(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("mapping preferences unavailable, using automatic mapping", "error", err)
		return nil
	}
	return prefs
}

// Get returns a pending result.
func (s *Service) Get(id string) (*ImportResult, error) {
	s.mu.RLock()
	p, ok := s.pending[id]
	s.mu.RUnlock()
	if !ok || s.now().After(p.expires) {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return p.result, nil
}

// Discard drops a pending result.
func (s *Service) Discard(ctx context.Context, id string) error {
	s.mu.Lock()
	p, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	s.record(ctx, resultEntry(ActionDiscard, p.result))
	return nil
}

// Commit hands a pending result to the persister. The result is removed
// from the pending set before persisting, so one validation commits at
// most once.
func (s *Service) Commit(ctx context.Context, id string) (*CommitOutcome, error) {
	if s.persister == nil {
		return nil, ErrNoPersister
	}
	result, err := s.take(id)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		s.restore(result)
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	report, err := Commit(ctx, result, s.persister)
	if err != nil {
		if !errors.Is(err, ErrNothingToCommit) {
			s.restore(result)
		}
		return nil, err
	}
	s.record(ctx, commitEntry(result, report))
	return &CommitOutcome{
		ImportID: id,
		Report:   report,
		Combined: CombinedReport(result, report),
	}, nil
}

func (s *Service) take(id string) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok || s.now().After(p.expires) {
		delete(s.pending, id)
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	delete(s.pending, id)
	return p.result, nil
}

// restore puts a result back after a commit that never reached the store.
func (s *Service) restore(result *ImportResult) {
	s.mu.Lock()
	s.pending[result.ID] = &pendingImport{result: result, expires: s.now().Add(s.cfg.PendingTTL)}
	s.mu.Unlock()
}

// PendingCount returns the number of results waiting for commit.
func (s *Service) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// PurgeExpired drops pending results past their TTL and returns how many.
func (s *Service) PurgeExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, p := range s.pending {
		if now.After(p.expires) {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// GetMapping returns the stored preference for et.
func (s *Service) GetMapping(ctx context.Context, et EntityType) (MappingPreference, bool, error) {
	if s.prefs == nil {
		return MappingPreference{}, false, nil
	}
	p, ok, err := s.prefs.LoadMapping(ctx, et)
	if err != nil {
		return MappingPreference{}, false, fmt.Errorf("load mapping preference %s: %w", et, err)
	}
	return p, ok, nil
}

// SaveMapping stores the preference for et, replacing any earlier one.
// Manual preferences must name at least one field and every binding must
// parse; whether the columns exist is checked against each sheet later.
func (s *Service) SaveMapping(ctx context.Context, et EntityType, p MappingPreference) error {
	if s.prefs == nil {
		return fmt.Errorf("save mapping preference %s: %w", et, ErrNoPreferenceStore)
	}
	def, ok := Get(et)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, et)
	}
	switch p.MappingMode {
	case MappingAuto, "":
		p.MappingMode = MappingAuto
	case MappingManual:
		if len(p.FieldMapping) == 0 {
			return fmt.Errorf("%w: manual mapping has no fields", ErrInvalidMapping)
		}
		for field := range p.FieldMapping {
			if _, ok := def.Field(field); !ok {
				return fmt.Errorf("%w: unknown field %q for %s", ErrInvalidMapping, field, et)
			}
		}
	default:
		return fmt.Errorf("%w: mapping mode %q", ErrInvalidMapping, p.MappingMode)
	}
	if err := s.prefs.SaveMapping(ctx, et, p); err != nil {
		return fmt.Errorf("save mapping preference %s: %w", et, err)
	}
	s.record(ctx, AuditEntry{Action: ActionMappingSave, Entity: et, Reason: string(p.MappingMode)})
	logging.FromContext(ctx).Info("mapping preference saved",
		"entity", et, "mapping_mode", p.MappingMode, "fields", len(p.FieldMapping))
	return nil
}

// ErrNoPreferenceStore is returned when saving without a store.
var ErrNoPreferenceStore = errors.New("no preference store configured")

// LimiterStatus reports the import limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
