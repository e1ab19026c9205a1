package entities

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Birth is one calving, keyed by the dam and the birth date.
type Birth struct {
	DamSeries   string              `json:"damSeries"`
	DamRG       string              `json:"damRg"`
	BirthDate   core.Date           `json:"birthDate"`
	CalfSeries  *string             `json:"calfSeries,omitempty"`
	CalfRG      *string             `json:"calfRg,omitempty"`
	CalfSex     *core.Sex           `json:"calfSex,omitempty"`
	Sire        *string             `json:"sire,omitempty"`
	BirthWeight decimal.NullDecimal `json:"birthWeight"`
	CalvingEase *string             `json:"calvingEase,omitempty"`
	Extras      map[string]string   `json:"extras,omitempty"`
}

func (b *Birth) Entity() core.EntityType { return core.EntityBirth }
func (b *Birth) NaturalKey() string {
	return core.NaturalKey(b.DamSeries, b.DamRG, dateKey(b.BirthDate))
}

var calvingEase = map[string]string{
	"normal":    "normal",
	"n":         "normal",
	"facil":     "normal",
	"assistido": "assisted",
	"assistida": "assisted",
	"a":         "assisted",
	"dificil":   "difficult",
	"distocico": "difficult",
	"d":         "difficult",
	"cesarea":   "caesarean",
	"c":         "caesarean",
}

func registerBirth() {
	core.Register(&core.EntityDefinition{
		Type:  core.EntityBirth,
		Label: "Birth",
		Fields: []core.FieldSpec{
			{Name: "dam_series", Label: "Dam series", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"serie", "serie mae", "serie da mae", "serie matriz"}},
			{Name: "dam_rg", Label: "Dam RG", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"rg", "rgn", "rg mae", "rg da mae", "rg matriz"}},
			{Name: "birth_date", Label: "Birth date", Type: core.FieldDate, Identity: true,
				Synonyms: []string{"data parto", "data do parto", "data nascimento", "nascimento", "data"}},
			{Name: "calf_series", Label: "Calf series", Type: core.FieldCode,
				Synonyms: []string{"serie bezerro", "serie cria", "serie produto"}},
			{Name: "calf_rg", Label: "Calf RG", Type: core.FieldCode,
				Synonyms: []string{"rg bezerro", "rg cria", "rg produto"}},
			{Name: "calf_sex", Label: "Calf sex", Type: core.FieldSex,
				Synonyms: []string{"sexo", "sexo bezerro", "sexo cria"}},
			{Name: "sire", Label: "Sire", Type: core.FieldText,
				Synonyms: []string{"pai", "touro", "reprodutor"}},
			{Name: "birth_weight", Label: "Birth weight", Type: core.FieldDecimal, Max: 100,
				Synonyms: []string{"peso", "peso nascimento", "peso ao nascer", "pn"}},
			{Name: "calving_ease", Label: "Calving ease", Type: core.FieldEnum, EnumValues: calvingEase,
				Synonyms: []string{"parto", "tipo parto", "tipo de parto", "facilidade parto"}},
		},
		Layout:     []string{"dam_series", "dam_rg", "birth_date", "calf_series", "calf_rg", "calf_sex", "sire"},
		MinColumns: 3,
		Splitter:   core.TailJoinSplitter{},
		Rules: []core.RuleFunc{
			core.RequiresField("calf_series", "calf_rg"),
		},
		Build: func(row *core.RowValues) core.Record {
			v := row.Fields
			return &Birth{
				DamSeries:   v.Text("dam_series"),
				DamRG:       v.Text("dam_rg"),
				BirthDate:   dateOrZero(v, "birth_date"),
				CalfSeries:  v.String("calf_series"),
				CalfRG:      v.String("calf_rg"),
				CalfSex:     v.Sex("calf_sex"),
				Sire:        v.String("sire"),
				BirthWeight: v.Decimal("birth_weight"),
				CalvingEase: v.String("calving_ease"),
				Extras:      extras(row),
			}
		},
	})
}
