package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Test fixtures
// ============================================================================

// refDate is "today" for every test that depends on the reference date.
var refDate = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type testAnimal struct {
	Series     string              `json:"series"`
	RG         string              `json:"rg"`
	Sex        *Sex                `json:"sex,omitempty"`
	BirthDate  *Date               `json:"birthDate,omitempty"`
	AgeMonths  *int                `json:"ageMonths,omitempty"`
	Weight     decimal.NullDecimal `json:"weight"`
	Sire       *string             `json:"sire,omitempty"`
	Dam        *string             `json:"dam,omitempty"`
	Grandsire  *string             `json:"grandsire,omitempty"`
	HostMother *string             `json:"hostMother,omitempty"`
	Extras     map[string]string   `json:"extras,omitempty"`
}

func (a *testAnimal) Entity() EntityType { return EntityAnimal }
func (a *testAnimal) NaturalKey() string { return NaturalKey(a.Series, a.RG) }

// testAnimalDefinition mirrors the shape of the herd book sheet with a
// smaller synonym table.
func testAnimalDefinition() *EntityDefinition {
	return &EntityDefinition{
		Type:  EntityAnimal,
		Label: "Animal registry",
		Fields: []FieldSpec{
			{Name: "series", Label: "Series", Type: FieldCode, Identity: true, Synonyms: []string{"serie"}},
			{Name: "rg", Label: "RG", Type: FieldCode, Identity: true, Synonyms: []string{"rg", "rgn"}},
			{Name: "sex", Label: "Sex", Type: FieldSex, Synonyms: []string{"sexo"}},
			{Name: "birth_date", Label: "Birth date", Type: FieldDate, Synonyms: []string{"nascimento", "data nascimento"}},
			{Name: "age_months", Label: "Age", Type: FieldInteger, Max: 600, Synonyms: []string{"idade"}},
			{Name: "weight", Label: "Weight", Type: FieldDecimal, Max: 2000, Synonyms: []string{"peso"}},
			{Name: "sire_name", Label: "Sire name", Type: FieldText, Synonyms: []string{"pai", "nome pai"}},
			{Name: "sire_series", Label: "Sire series", Type: FieldCode, Synonyms: []string{"serie pai"},
				Anchor: "sire_name", AnchoredSynonyms: []string{"serie"}},
			{Name: "sire_rg", Label: "Sire RG", Type: FieldCode, Synonyms: []string{"rg pai"},
				Anchor: "sire_name", AnchoredSynonyms: []string{"rg", "rgn", "rgd"}},
			{Name: "sire", Label: "Sire", Type: FieldText},
			{Name: "dam_name", Label: "Dam name", Type: FieldText, Synonyms: []string{"mae", "nome mae"}},
			{Name: "dam_series", Label: "Dam series", Type: FieldCode, Synonyms: []string{"serie mae"},
				Anchor: "dam_name", AnchoredSynonyms: []string{"serie"}},
			{Name: "dam_rg", Label: "Dam RG", Type: FieldCode, Synonyms: []string{"rg mae"},
				Anchor: "dam_name", AnchoredSynonyms: []string{"rg", "rgn", "rgd"}},
			{Name: "dam", Label: "Dam", Type: FieldText},
			{Name: "maternal_grandsire", Label: "Grandsire", Type: FieldText, Synonyms: []string{"avo materno"}},
			{Name: "host_mother", Label: "Host mother", Type: FieldText, Synonyms: []string{"receptora"}},
		},
		Composites: []CompositeSpec{
			{Target: "sire", Name: "sire_name", Series: "sire_series", Registration: "sire_rg", PairSeparator: " "},
			{Target: "dam", Name: "dam_name", Series: "dam_series", Registration: "dam_rg", PairSeparator: "-"},
		},
		Layout: []string{
			"series", "rg", "sex", "birth_date", "age_months",
			"sire_name", "sire_series", "sire_rg",
			"dam_name", "dam_series", "dam_rg",
			"maternal_grandsire", "host_mother",
		},
		Required: map[Mode][]string{
			ModeCreate:    {"sex", "birth_date"},
			ModeOverwrite: {"sex", "birth_date"},
		},
		MinColumns: 2,
		Splitter: LineageSplitter{
			Lead:        4,
			NumericSlot: 4,
			Groups:      []LineageSlots{{Name: 5, Series: 6, Registration: 7}, {Name: 8, Series: 9, Registration: 10}},
			TailName:    11,
			TailPair:    12,
		},
		DerivedAge: &DerivedAgeSpec{BirthField: "birth_date", AgeField: "age_months"},
		Rules: []RuleFunc{
			RequireAny(ReasonNoUpdateTarget, []Mode{ModeReconcileUpdate}, "sire", "dam", "host_mother"),
		},
		Build: func(row *RowValues) Record {
			v := row.Fields
			return &testAnimal{
				Series:     v.Text("series"),
				RG:         v.Text("rg"),
				Sex:        v.Sex("sex"),
				BirthDate:  v.Date("birth_date"),
				AgeMonths:  v.Int("age_months"),
				Weight:     v.Decimal("weight"),
				Sire:       v.String("sire"),
				Dam:        v.String("dam"),
				Grandsire:  v.String("maternal_grandsire"),
				HostMother: v.String("host_mother"),
				Extras:     row.Extras,
			}
		},
	}
}

// withTestRegistry replaces the registry with the test definitions for
// the duration of the test.
func withTestRegistry(t *testing.T, defs ...*EntityDefinition) {
	t.Helper()
	Clear()
	if len(defs) == 0 {
		defs = []*EntityDefinition{testAnimalDefinition()}
	}
	for _, d := range defs {
		Register(d)
	}
	t.Cleanup(Clear)
}

func testConfig(opts ...ConfigOption) ImportConfiguration {
	base := []ConfigOption{WithReferenceDate(refDate), WithWorkers(1)}
	return NewImportConfiguration(append(base, opts...)...)
}

func headersOf(names ...string) []ColumnHeader {
	out := make([]ColumnHeader, len(names))
	for i, n := range names {
		out[i] = ColumnHeader{Name: n, Position: i}
	}
	return out
}

func strPtr(s string) *string { return &s }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
