package entities

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// Insemination is one artificial insemination of a female.
type Insemination struct {
	Series      string              `json:"series"`
	RG          string              `json:"rg"`
	Date        core.Date           `json:"date"`
	Bull        *string             `json:"bull,omitempty"`
	Inseminator *string             `json:"inseminator,omitempty"`
	Protocol    *string             `json:"protocol,omitempty"`
	Straws      *int                `json:"straws,omitempty"`
	Cost        decimal.NullDecimal `json:"cost"`
	Notes       *string             `json:"notes,omitempty"`
	Extras      map[string]string   `json:"extras,omitempty"`
}

func (i *Insemination) Entity() core.EntityType { return core.EntityInsemination }
func (i *Insemination) NaturalKey() string {
	return core.NaturalKey(i.Series, i.RG, dateKey(i.Date))
}

func registerInsemination() {
	core.Register(&core.EntityDefinition{
		Type:  core.EntityInsemination,
		Label: "Insemination",
		Fields: []core.FieldSpec{
			{Name: "series", Label: "Female series", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"serie", "serie femea", "serie vaca", "serie matriz"}},
			{Name: "rg", Label: "Female RG", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"rg", "rgn", "rg femea", "rg vaca", "rg matriz"}},
			{Name: "insemination_date", Label: "Insemination date", Type: core.FieldDate, Identity: true,
				Synonyms: []string{"data ia", "data inseminacao", "data da ia", "data"}},
			{Name: "bull", Label: "Bull", Type: core.FieldText,
				Synonyms: []string{"touro", "semen", "reprodutor", "touro semen"}},
			{Name: "inseminator", Label: "Inseminator", Type: core.FieldText,
				Synonyms: []string{"inseminador", "tecnico"}},
			{Name: "protocol", Label: "Protocol", Type: core.FieldText,
				Synonyms: []string{"protocolo", "iatf"}},
			{Name: "straws", Label: "Straws", Type: core.FieldInteger, Max: 10,
				Synonyms: []string{"doses", "palhetas"}},
			{Name: "cost", Label: "Cost", Type: core.FieldDecimal, Max: 100000,
				Synonyms: []string{"custo", "valor"}},
			{Name: "notes", Label: "Notes", Type: core.FieldText,
				Synonyms: []string{"obs", "observacao", "observacoes"}},
		},
		Layout: []string{"series", "rg", "insemination_date", "bull", "inseminator", "protocol"},
		Required: map[core.Mode][]string{
			core.ModeCreate:    {"bull"},
			core.ModeOverwrite: {"bull"},
		},
		MinColumns: 3,
		Splitter:   core.TailJoinSplitter{},
		Build: func(row *core.RowValues) core.Record {
			v := row.Fields
			return &Insemination{
				Series:      v.Text("series"),
				RG:          v.Text("rg"),
				Date:        dateOrZero(v, "insemination_date"),
				Bull:        v.String("bull"),
				Inseminator: v.String("inseminator"),
				Protocol:    v.String("protocol"),
				Straws:      v.Int("straws"),
				Cost:        v.Decimal("cost"),
				Notes:       v.String("notes"),
				Extras:      extras(row),
			}
		},
	})
}
