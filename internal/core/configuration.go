package core

import (
	"maps"
	"slices"
	"time"
)

// Pipeline defaults applied by NewImportConfiguration.
const (
	DefaultWorkers           = 4
	DefaultMaxReportedErrors = 200
)

// ImportConfiguration is the immutable set of choices for one import.
// Build it with NewImportConfiguration. A zero value behaves like the
// defaults, with the reference date read at each call.
type ImportConfiguration struct {
	entityHint    EntityType
	mode          Mode
	mappingMode   MappingMode
	mapping       FieldMapping
	disabled      map[string]bool
	extraFields   []string
	preferences   map[EntityType]MappingPreference
	referenceDate time.Time
	workers       int
	maxErrors     int
}

// ConfigOption customizes an ImportConfiguration.
type ConfigOption func(*ImportConfiguration)

// NewImportConfiguration returns a configuration with defaults applied.
func NewImportConfiguration(opts ...ConfigOption) ImportConfiguration {
	cfg := ImportConfiguration{
		mode:          ModeCreate,
		referenceDate: time.Now(),
		workers:       DefaultWorkers,
		maxErrors:     DefaultMaxReportedErrors,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithEntity pins the entity type instead of sniffing it.
func WithEntity(et EntityType) ConfigOption {
	return func(c *ImportConfiguration) { c.entityHint = et }
}

// WithMode sets the operation mode.
func WithMode(m Mode) ConfigOption {
	return func(c *ImportConfiguration) {
		if m != "" {
			c.mode = m
		}
	}
}

// WithAutoMapping forces automatic mapping even when a manual preference exists.
func WithAutoMapping() ConfigOption {
	return func(c *ImportConfiguration) {
		c.mappingMode = MappingAuto
		c.mapping = nil
	}
}

// WithManualMapping supplies a caller-confirmed mapping.
func WithManualMapping(m FieldMapping) ConfigOption {
	return func(c *ImportConfiguration) {
		c.mappingMode = MappingManual
		c.mapping = m.Clone()
	}
}

// WithDisabledFields removes fields from extraction and from the required set.
func WithDisabledFields(names ...string) ConfigOption {
	return func(c *ImportConfiguration) {
		if c.disabled == nil {
			c.disabled = make(map[string]bool, len(names))
		}
		for _, n := range names {
			c.disabled[n] = true
		}
	}
}

// WithExtraFields names source columns carried verbatim on each record.
func WithExtraFields(columns ...string) ConfigOption {
	return func(c *ImportConfiguration) {
		c.extraFields = append(slices.Clone(c.extraFields), columns...)
	}
}

// WithPreferences installs the mapping preferences read at session start.
func WithPreferences(prefs map[EntityType]MappingPreference) ConfigOption {
	return func(c *ImportConfiguration) {
		c.preferences = make(map[EntityType]MappingPreference, len(prefs))
		for k, v := range prefs {
			c.preferences[k] = v.Clone()
		}
	}
}

// WithReferenceDate sets "today" for two-digit years and derived ages.
func WithReferenceDate(t time.Time) ConfigOption {
	return func(c *ImportConfiguration) { c.referenceDate = t }
}

// WithWorkers bounds per-row parallelism. Values below one mean sequential.
func WithWorkers(n int) ConfigOption {
	return func(c *ImportConfiguration) { c.workers = max(n, 1) }
}

// WithMaxReportedErrors bounds ImportResult.Messages.
func WithMaxReportedErrors(n int) ConfigOption {
	return func(c *ImportConfiguration) {
		if n > 0 {
			c.maxErrors = n
		}
	}
}

func (c ImportConfiguration) EntityHint() EntityType   { return c.entityHint }
func (c ImportConfiguration) MappingMode() MappingMode { return c.mappingMode }

func (c ImportConfiguration) Mode() Mode {
	if c.mode == "" {
		return ModeCreate
	}
	return c.mode
}

func (c ImportConfiguration) ReferenceDate() time.Time {
	if c.referenceDate.IsZero() {
		return time.Now()
	}
	return c.referenceDate
}

// Workers is at least one.
func (c ImportConfiguration) Workers() int {
	if c.workers < 1 {
		return DefaultWorkers
	}
	return c.workers
}

func (c ImportConfiguration) MaxReportedErrors() int {
	if c.maxErrors < 1 {
		return DefaultMaxReportedErrors
	}
	return c.maxErrors
}

// Mapping returns a copy of the manual mapping, if any.
func (c ImportConfiguration) Mapping() FieldMapping { return c.mapping.Clone() }

// ExtraFields returns a copy of the extra source columns.
func (c ImportConfiguration) ExtraFields() []string { return slices.Clone(c.extraFields) }

// DisabledFields returns the disabled field names, sorted.
func (c ImportConfiguration) DisabledFields() []string {
	return slices.Sorted(maps.Keys(c.disabled))
}

// FieldEnabled reports whether a field takes part in this import.
func (c ImportConfiguration) FieldEnabled(name string) bool {
	return !c.disabled[name]
}

// Preference returns the stored mapping preference for et.
func (c ImportConfiguration) Preference(et EntityType) (MappingPreference, bool) {
	p, ok := c.preferences[et]
	return p, ok
}
