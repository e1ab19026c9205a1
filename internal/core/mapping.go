package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// MappingMode selects how a FieldMapping is produced.
type MappingMode string

const (
	MappingAuto   MappingMode = "auto"
	MappingManual MappingMode = "manual"
)

// ColumnReference points at a source column by header name, by name plus
// 0-based position, or positionally when no header row exists.
//
// Text forms: "RG", "RG|3", "Column 4".
type ColumnReference struct {
	Name     string
	Position int  // 0-based; -1 when the reference is by name only
	Fallback bool // "Column N" reference
}

// ByName references the first column with the given header.
func ByName(name string) ColumnReference {
	return ColumnReference{Name: name, Position: -1}
}

// ByNameAt references a duplicate header by position.
func ByNameAt(name string, pos int) ColumnReference {
	return ColumnReference{Name: name, Position: pos}
}

// ByPosition references a column of a headerless sheet.
func ByPosition(pos int) ColumnReference {
	return ColumnReference{Name: PositionalName(pos), Position: pos, Fallback: true}
}

// PositionalName is the fallback header for 0-based position pos.
func PositionalName(pos int) string {
	return "Column " + strconv.Itoa(pos+1)
}

// ParseColumnReference parses the text form of a reference.
func ParseColumnReference(s string) (ColumnReference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ColumnReference{}, fmt.Errorf("%w: empty column reference", ErrInvalidMapping)
	}
	if rest, ok := strings.CutPrefix(s, "Column "); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			if n < 1 {
				return ColumnReference{}, fmt.Errorf("%w: column %q out of range", ErrInvalidMapping, s)
			}
			return ByPosition(n - 1), nil
		}
	}
	if i := strings.LastIndex(s, "|"); i > 0 {
		if pos, err := strconv.Atoi(s[i+1:]); err == nil && pos >= 0 {
			return ByNameAt(s[:i], pos), nil
		}
	}
	return ByName(s), nil
}

func (r ColumnReference) String() string {
	switch {
	case r.Fallback:
		return PositionalName(r.Position)
	case r.Position >= 0:
		return r.Name + "|" + strconv.Itoa(r.Position)
	default:
		return r.Name
	}
}

func (r ColumnReference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ColumnReference) UnmarshalText(b []byte) error {
	ref, err := ParseColumnReference(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// Resolve returns the 0-based column index the reference points at.
func (r ColumnReference) Resolve(headers []ColumnHeader) (int, bool) {
	if r.Fallback {
		return r.Position, r.Position >= 0 && r.Position < len(headers)
	}
	want := NormalizeHeader(r.Name)
	if want == "" {
		return -1, false
	}
	if r.Position >= 0 {
		if r.Position < len(headers) && NormalizeHeader(headers[r.Position].Name) == want {
			return r.Position, true
		}
		return -1, false
	}
	for _, h := range headers {
		if NormalizeHeader(h.Name) == want {
			return h.Position, true
		}
	}
	return -1, false
}

// FieldBinding says which column feeds a canonical field.
type FieldBinding struct {
	Enabled bool            `json:"enabled"`
	Source  ColumnReference `json:"source"`
}

// FieldMapping maps canonical field names to their bindings.
type FieldMapping map[string]FieldBinding

// Clone returns a copy of m.
func (m FieldMapping) Clone() FieldMapping {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Fields returns the mapped field names, sorted.
func (m FieldMapping) Fields() []string {
	return slices.Sorted(maps.Keys(m))
}

// Check verifies that every enabled binding references an existing column.
func (m FieldMapping) Check(def *EntityDefinition, headers []ColumnHeader) error {
	var problems []string
	for _, name := range m.Fields() {
		b := m[name]
		if !b.Enabled {
			continue
		}
		if _, ok := def.Field(name); !ok {
			problems = append(problems, fmt.Sprintf("unknown field %q", name))
			continue
		}
		if _, ok := b.Source.Resolve(headers); !ok {
			problems = append(problems, fmt.Sprintf("%s -> column %q not found", name, b.Source))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMapping, strings.Join(problems, "; "))
	}
	return nil
}

// Coverage is the share of enabled bindings that resolve against headers.
func (m FieldMapping) Coverage(headers []ColumnHeader) float64 {
	enabled, ok := 0, 0
	for _, b := range m {
		if !b.Enabled {
			continue
		}
		enabled++
		if _, found := b.Source.Resolve(headers); found {
			ok++
		}
	}
	if enabled == 0 {
		return 0
	}
	return float64(ok) / float64(enabled)
}

// MappingPreference is the value persisted per entity type.
type MappingPreference struct {
	MappingMode  MappingMode  `json:"mappingMode"`
	FieldMapping FieldMapping `json:"fieldMapping"`
	ExtraFields  []string     `json:"extraFields"`
}

// Clone returns a deep copy of p.
func (p MappingPreference) Clone() MappingPreference {
	return MappingPreference{
		MappingMode:  p.MappingMode,
		FieldMapping: p.FieldMapping.Clone(),
		ExtraFields:  slices.Clone(p.ExtraFields),
	}
}

// EncodeMappingPreference serializes a preference for storage.
func EncodeMappingPreference(p MappingPreference) ([]byte, error) {
	if p.MappingMode == "" {
		p.MappingMode = MappingAuto
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping preference: %w", err)
	}
	return data, nil
}

// DecodeMappingPreference parses a stored preference. Malformed payloads
// report ok=false and are treated as "no preference".
func DecodeMappingPreference(data []byte) (MappingPreference, bool) {
	var p MappingPreference
	if len(data) == 0 {
		return p, false
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return MappingPreference{}, false
	}
	switch p.MappingMode {
	case MappingAuto, MappingManual:
	default:
		return MappingPreference{}, false
	}
	if p.MappingMode == MappingManual && len(p.FieldMapping) == 0 {
		return MappingPreference{}, false
	}
	return p, true
}
