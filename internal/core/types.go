// Package core provides the tabular import and reconciliation engine.
// This package has no transport or storage dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"strings"
)

// EntityType identifies the kind of record a sheet describes.
type EntityType string

const (
	EntityAnimal       EntityType = "animal"
	EntityInsemination EntityType = "insemination"
	EntityFIV          EntityType = "fiv"
	EntityBirth        EntityType = "birth"
	EntityGestation    EntityType = "gestation"
	EntityFinancial    EntityType = "financial"
)

// EntityTypes lists every entity type in sniffing order.
var EntityTypes = []EntityType{
	EntityInsemination,
	EntityFIV,
	EntityBirth,
	EntityGestation,
	EntityFinancial,
	EntityAnimal,
}

var entityAliases = map[string]EntityType{
	"animal":               EntityAnimal,
	"animals":              EntityAnimal,
	"animalregistry":       EntityAnimal,
	"registry":             EntityAnimal,
	"insemination":         EntityInsemination,
	"ia":                   EntityInsemination,
	"fiv":                  EntityFIV,
	"invitrofertilization": EntityFIV,
	"birth":                EntityBirth,
	"parto":                EntityBirth,
	"gestation":            EntityGestation,
	"gestationdiagnosis":   EntityGestation,
	"dg":                   EntityGestation,
	"financial":            EntityFinancial,
	"financialdocument":    EntityFinancial,
}

// ParseEntityType resolves a user supplied entity name. The empty string
// yields the empty EntityType, meaning "sniff it".
func ParseEntityType(s string) (EntityType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if key == "" {
		return "", nil
	}
	if et, ok := entityAliases[key]; ok {
		return et, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// Mode is the operation mode of an import.
type Mode string

const (
	ModeCreate          Mode = "create"
	ModeOverwrite       Mode = "overwrite"
	ModeReconcileUpdate Mode = "update"
)

// ParseMode resolves a mode name; empty means ModeCreate.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "create":
		return ModeCreate, nil
	case "overwrite":
		return ModeOverwrite, nil
	case "update", "reconcile", "reconcile-update", "fill-empty":
		return ModeReconcileUpdate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// PersistAction names what the persistence collaborator does with a record
// whose natural key already exists.
func (m Mode) PersistAction() string {
	switch m {
	case ModeOverwrite:
		return "insert-or-overwrite"
	case ModeReconcileUpdate:
		return "insert-or-fill-empty"
	default:
		return "insert-or-ignore"
	}
}

// MergesDuplicates reports whether same-batch duplicates are merged by key
// instead of rejected.
func (m Mode) MergesDuplicates() bool {
	return m == ModeReconcileUpdate
}

// FieldType represents the canonical type of a field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldCode
	FieldDate
	FieldSex
	FieldInteger
	FieldDecimal
	FieldEnum
)

var fieldTypeNames = [...]string{"text", "code", "date", "sex", "integer", "decimal", "enum"}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return "unknown"
	}
	return fieldTypeNames[t]
}

// FieldSpec describes one canonical field of an entity.
type FieldSpec struct {
	Name  string    // canonical name: "series", "sire_rg"
	Label string    // display name
	Type  FieldType // canonical type

	// Synonyms are normalized header names that bind this field anywhere.
	Synonyms []string

	// Anchor names a field that must be resolved first; when it is, the
	// search for this field starts after the anchor column and
	// AnchoredSynonyms become legal as well.
	Anchor           string
	AnchoredSynonyms []string

	Identity   bool              // part of the natural key
	Max        float64           // numeric upper bound; zero means unbounded
	EnumValues map[string]string // normalized input -> canonical value
}

// CompositeSpec assembles one genealogy field from up to three parts.
type CompositeSpec struct {
	Target        string // field receiving the assembled value
	Name          string
	Series        string
	Registration  string
	PairSeparator string // between series and registration; defaults to a space
}

// RuleFunc checks cross-field consistency of a normalized row. It returns
// nil when the row is consistent.
type RuleFunc func(row *RowValues, mode Mode) *RowError

// BuildFunc turns a validated row into a typed record.
type BuildFunc func(row *RowValues) Record

// EntityDefinition contains everything needed to import one entity type.
type EntityDefinition struct {
	Type  EntityType
	Label string

	Fields     []FieldSpec
	Composites []CompositeSpec

	// Layout is the positional field order used when no header row exists.
	Layout []string

	// Required lists required fields per mode. Identity fields are always
	// required and need not be repeated.
	Required map[Mode][]string

	// MinColumns is the smallest column count a sheet may have.
	MinColumns int

	// Splitter reshapes whitespace separated rows onto Layout.
	Splitter TrailingSplitter

	// DerivedAge names the birth-date and age fields used for age derivation.
	DerivedAge *DerivedAgeSpec

	Rules []RuleFunc
	Build BuildFunc
}

// DerivedAgeSpec names the fields involved in age derivation.
type DerivedAgeSpec struct {
	BirthField string
	AgeField   string
}

// Field returns the spec for name.
func (d *EntityDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// IdentityFields returns the natural key fields in declaration order.
func (d *EntityDefinition) IdentityFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Identity {
			out = append(out, f.Name)
		}
	}
	return out
}

// RequiredFields returns identity fields plus the mode specific required
// fields, minus any field disabled by the configuration. Identity fields
// cannot be disabled.
func (d *EntityDefinition) RequiredFields(mode Mode, cfg ImportConfiguration) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range d.IdentityFields() {
		seen[name] = true
		out = append(out, name)
	}
	for _, name := range d.Required[mode] {
		if seen[name] || !cfg.FieldEnabled(name) {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ColumnHeader is one column of the source table.
// Duplicate names are legal and distinguished by Position (0-based).
type ColumnHeader struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Delimiter is the cell separator chosen for an import.
type Delimiter string

const (
	DelimTab        Delimiter = "tab"
	DelimPipe       Delimiter = "pipe"
	DelimComma      Delimiter = "comma"
	DelimWhitespace Delimiter = "whitespace"
	DelimWorkbook   Delimiter = "workbook"
)

// PipeMinColumns is the column count required in pipe entry mode.
const PipeMinColumns = 4

// RawRow is one non-blank line of input.
type RawRow struct {
	Index int      // 1-based, counted after blank-line filtering
	Cells []string // untyped cell strings
}

// RawTable is the splitter output. It is never mutated after creation.
type RawTable struct {
	Rows      []RawRow
	Delimiter Delimiter
	Container string // sheet or file name, if any
}

// Width returns the widest row's cell count.
func (t *RawTable) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r.Cells) > w {
			w = len(r.Cells)
		}
	}
	return w
}

// ValidationOutcome is the terminal per-row result before reconciliation.
type ValidationOutcome struct {
	Row      int       `json:"row"`
	Accepted bool      `json:"accepted"`
	Record   Record    `json:"record,omitempty"`
	Error    *RowError `json:"error,omitempty"`
	Raw      []string  `json:"-"`
}

// AcceptedRecord is a reconciled record ready for persistence.
type AcceptedRecord struct {
	Row        int        `json:"row"`
	SourceRows []int      `json:"sourceRows"`
	Entity     EntityType `json:"entity"`
	Mode       Mode       `json:"mode"`
	Action     string     `json:"action"`
	Record     Record     `json:"record"`
}
