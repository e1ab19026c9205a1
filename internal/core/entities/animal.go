package entities

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Animal is one individual of the herd book, keyed by series and RG.
type Animal struct {
	Series            string              `json:"series"`
	RG                string              `json:"rg"`
	Name              *string             `json:"name,omitempty"`
	Sex               *core.Sex           `json:"sex,omitempty"`
	BirthDate         *core.Date          `json:"birthDate,omitempty"`
	AgeMonths         *int                `json:"ageMonths,omitempty"`
	Breed             *string             `json:"breed,omitempty"`
	Category          *string             `json:"category,omitempty"`
	WeightKg          decimal.NullDecimal `json:"weightKg"`
	Sire              *string             `json:"sire,omitempty"`
	Dam               *string             `json:"dam,omitempty"`
	MaternalGrandsire *string             `json:"maternalGrandsire,omitempty"`
	HostMother        *string             `json:"hostMother,omitempty"`
	Extras            map[string]string   `json:"extras,omitempty"`
}

func (a *Animal) Entity() core.EntityType { return core.EntityAnimal }
func (a *Animal) NaturalKey() string      { return core.NaturalKey(a.Series, a.RG) }

// AnimalSplitter reads whitespace rows of the animal layout: four lead
// tokens, an optional age, sire and dam groups, then the maternal
// grandsire name closed by the host mother's pair.
var AnimalSplitter = core.LineageSplitter{
	Lead:        4,
	NumericSlot: 4,
	Groups: []core.LineageSlots{
		{Name: 5, Series: 6, Registration: 7},
		{Name: 8, Series: 9, Registration: 10},
	},
	TailName: 11,
	TailPair: 12,
}

// AnimalDefinition describes the herd book sheet.
func AnimalDefinition() *core.EntityDefinition {
	return &core.EntityDefinition{
		Type:  core.EntityAnimal,
		Label: "Animal registry",
		Fields: []core.FieldSpec{
			{Name: "series", Label: "Series", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"serie", "serie animal", "sigla", "serie do animal"}},
			{Name: "rg", Label: "RG", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"rg", "rgn", "rg animal", "registro", "rg do animal"}},
			{Name: "sex", Label: "Sex", Type: core.FieldSex,
				Synonyms: []string{"sexo", "sex"}},
			{Name: "birth_date", Label: "Birth date", Type: core.FieldDate,
				Synonyms: []string{"nascimento", "data nascimento", "data de nascimento", "nasc", "dt nasc"}},
			{Name: "age_months", Label: "Age (months)", Type: core.FieldInteger, Max: 600,
				Synonyms: []string{"idade", "idade meses", "meses"}},
			{Name: "name", Label: "Name", Type: core.FieldText,
				Synonyms: []string{"nome", "nome animal"}},
			{Name: "breed", Label: "Breed", Type: core.FieldText,
				Synonyms: []string{"raca"}},
			{Name: "category", Label: "Category", Type: core.FieldText,
				Synonyms: []string{"categoria"}},
			{Name: "weight_kg", Label: "Weight (kg)", Type: core.FieldDecimal, Max: 2000,
				Synonyms: []string{"peso", "peso kg", "peso atual"}},

			{Name: "sire_name", Label: "Sire name", Type: core.FieldText,
				Synonyms: []string{"pai", "nome pai", "nome do pai"}},
			{Name: "sire_series", Label: "Sire series", Type: core.FieldCode,
				Synonyms: []string{"serie pai", "serie do pai"},
				Anchor:   "sire_name", AnchoredSynonyms: []string{"serie"}},
			{Name: "sire_rg", Label: "Sire RG", Type: core.FieldCode,
				Synonyms: []string{"rg pai", "rgd pai", "rg do pai"},
				Anchor:   "sire_name", AnchoredSynonyms: []string{"rg", "rgn", "rgd"}},
			{Name: "sire", Label: "Sire", Type: core.FieldText,
				Synonyms: []string{"genealogia pai"}},

			{Name: "dam_name", Label: "Dam name", Type: core.FieldText,
				Synonyms: []string{"mae", "nome mae", "nome da mae", "matriz"}},
			{Name: "dam_series", Label: "Dam series", Type: core.FieldCode,
				Synonyms: []string{"serie mae", "serie da mae"},
				Anchor:   "dam_name", AnchoredSynonyms: []string{"serie"}},
			{Name: "dam_rg", Label: "Dam RG", Type: core.FieldCode,
				Synonyms: []string{"rg mae", "rgd mae", "rg da mae"},
				Anchor:   "dam_name", AnchoredSynonyms: []string{"rg", "rgn", "rgd"}},
			{Name: "dam", Label: "Dam", Type: core.FieldText,
				Synonyms: []string{"genealogia mae"}},

			{Name: "maternal_grandsire", Label: "Maternal grandsire", Type: core.FieldText,
				Synonyms: []string{"avo materno", "avo", "avo mat"}},
			{Name: "host_mother", Label: "Host mother", Type: core.FieldText,
				Synonyms: []string{"receptora", "mae receptora", "barriga de aluguel"}},
		},
		Composites: []core.CompositeSpec{
			{Target: "sire", Name: "sire_name", Series: "sire_series", Registration: "sire_rg", PairSeparator: " "},
			{Target: "dam", Name: "dam_name", Series: "dam_series", Registration: "dam_rg", PairSeparator: "-"},
		},
		Layout: []string{
			"series", "rg", "sex", "birth_date", "age_months",
			"sire_name", "sire_series", "sire_rg",
			"dam_name", "dam_series", "dam_rg",
			"maternal_grandsire", "host_mother",
		},
		Required: map[core.Mode][]string{
			core.ModeCreate:    {"sex", "birth_date"},
			core.ModeOverwrite: {"sex", "birth_date"},
		},
		MinColumns: 2,
		Splitter:   AnimalSplitter,
		DerivedAge: &core.DerivedAgeSpec{BirthField: "birth_date", AgeField: "age_months"},
		Rules: []core.RuleFunc{
			core.RequireAny(core.ReasonNoUpdateTarget, []core.Mode{core.ModeReconcileUpdate}, "sire", "dam", "host_mother"),
		},
		Build: buildAnimal,
	}
}

func buildAnimal(row *core.RowValues) core.Record {
	v := row.Fields
	return &Animal{
		Series:            v.Text("series"),
		RG:                v.Text("rg"),
		Name:              v.String("name"),
		Sex:               v.Sex("sex"),
		BirthDate:         v.Date("birth_date"),
		AgeMonths:         v.Int("age_months"),
		Breed:             v.String("breed"),
		Category:          v.String("category"),
		WeightKg:          v.Decimal("weight_kg"),
		Sire:              v.String("sire"),
		Dam:               v.String("dam"),
		MaternalGrandsire: v.String("maternal_grandsire"),
		HostMother:        v.String("host_mother"),
		Extras:            extras(row),
	}
}

func registerAnimal() {
	core.Register(AnimalDefinition())
}
