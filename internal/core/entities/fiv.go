package entities

import (
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// InVitroFertilization is one oocyte aspiration of a donor and its yield.
type InVitroFertilization struct {
	DonorSeries    string              `json:"donorSeries"`
	DonorRG        string              `json:"donorRg"`
	AspirationDate core.Date           `json:"aspirationDate"`
	Bull           *string             `json:"bull,omitempty"`
	Oocytes        *int                `json:"oocytes,omitempty"`
	Embryos        *int                `json:"embryos,omitempty"`
	Lab            *string             `json:"lab,omitempty"`
	Cost           decimal.NullDecimal `json:"cost"`
	Extras         map[string]string   `json:"extras,omitempty"`
}

func (f *InVitroFertilization) Entity() core.EntityType { return core.EntityFIV }
func (f *InVitroFertilization) NaturalKey() string {
	return core.NaturalKey(f.DonorSeries, f.DonorRG, dateKey(f.AspirationDate))
}

// embryosWithinOocytes rejects rows reporting more embryos than oocytes.
func embryosWithinOocytes(row *core.RowValues, _ core.Mode) *core.RowError {
	oocytes, embryos := row.Fields.Int("oocytes"), row.Fields.Int("embryos")
	if oocytes == nil || embryos == nil || *embryos <= *oocytes {
		return nil
	}
	return core.NewRuleError(core.ReasonInconsistent, "embryos", "",
		"embryos (%d) exceed oocytes (%d)", *embryos, *oocytes)
}

func registerFIV() {
	core.Register(&core.EntityDefinition{
		Type:  core.EntityFIV,
		Label: "In vitro fertilization",
		Fields: []core.FieldSpec{
			{Name: "donor_series", Label: "Donor series", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"serie", "serie doadora", "doadora serie"}},
			{Name: "donor_rg", Label: "Donor RG", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"rg", "rgn", "rg doadora", "doadora rg"}},
			{Name: "aspiration_date", Label: "Aspiration date", Type: core.FieldDate, Identity: true,
				Synonyms: []string{"data fiv", "data aspiracao", "data opu", "data"}},
			{Name: "bull", Label: "Bull", Type: core.FieldText,
				Synonyms: []string{"touro", "semen", "reprodutor"}},
			{Name: "oocytes", Label: "Oocytes", Type: core.FieldInteger, Max: 500,
				Synonyms: []string{"oocitos", "oocitos viaveis", "total oocitos"}},
			{Name: "embryos", Label: "Embryos", Type: core.FieldInteger, Max: 500,
				Synonyms: []string{"embrioes", "embrioes produzidos"}},
			{Name: "lab", Label: "Laboratory", Type: core.FieldText,
				Synonyms: []string{"laboratorio", "lab"}},
			{Name: "cost", Label: "Cost", Type: core.FieldDecimal, Max: 1000000,
				Synonyms: []string{"custo", "valor"}},
		},
		Layout:     []string{"donor_series", "donor_rg", "aspiration_date", "bull", "oocytes", "embryos"},
		MinColumns: 3,
		Rules:      []core.RuleFunc{embryosWithinOocytes},
		Build: func(row *core.RowValues) core.Record {
			v := row.Fields
			return &InVitroFertilization{
				DonorSeries:    v.Text("donor_series"),
				DonorRG:        v.Text("donor_rg"),
				AspirationDate: dateOrZero(v, "aspiration_date"),
				Bull:           v.String("bull"),
				Oocytes:        v.Int("oocytes"),
				Embryos:        v.Int("embryos"),
				Lab:            v.String("lab"),
				Cost:           v.Decimal("cost"),
				Extras:         extras(row),
			}
		},
	})
}
