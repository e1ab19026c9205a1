package entities

import "github.com/JonMunkholm/herdbook/internal/core"

// Gestation is a pregnancy diagnosis.
type Gestation struct {
	Series           string            `json:"series"`
	RG               string            `json:"rg"`
	DiagnosisDate    core.Date         `json:"diagnosisDate"`
	Result           *string           `json:"result,omitempty"`
	InseminationDate *core.Date        `json:"inseminationDate,omitempty"`
	ExpectedCalving  *core.Date        `json:"expectedCalving,omitempty"`
	DaysPregnant     *int              `json:"daysPregnant,omitempty"`
	Veterinarian     *string           `json:"veterinarian,omitempty"`
	Extras           map[string]string `json:"extras,omitempty"`
}

func (g *Gestation) Entity() core.EntityType { return core.EntityGestation }
func (g *Gestation) NaturalKey() string {
	return core.NaturalKey(g.Series, g.RG, dateKey(g.DiagnosisDate))
}

const (
	GestationPregnant = "pregnant"
	GestationEmpty    = "empty"
)

var gestationResults = map[string]string{
	"prenhe":   GestationPregnant,
	"prenha":   GestationPregnant,
	"p":        GestationPregnant,
	"positivo": GestationPregnant,
	"+":        GestationPregnant,
	"vazia":    GestationEmpty,
	"v":        GestationEmpty,
	"negativo": GestationEmpty,
}

func registerGestation() {
	core.Register(&core.EntityDefinition{
		Type:  core.EntityGestation,
		Label: "Gestation diagnosis",
		Fields: []core.FieldSpec{
			{Name: "series", Label: "Female series", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"serie", "serie femea", "serie vaca", "serie matriz"}},
			{Name: "rg", Label: "Female RG", Type: core.FieldCode, Identity: true,
				Synonyms: []string{"rg", "rgn", "rg femea", "rg vaca", "rg matriz"}},
			{Name: "diagnosis_date", Label: "Diagnosis date", Type: core.FieldDate, Identity: true,
				Synonyms: []string{"data diagnostico", "data dg", "data toque", "data"}},
			{Name: "result", Label: "Result", Type: core.FieldEnum, EnumValues: gestationResults,
				Synonyms: []string{"resultado", "diagnostico", "dg", "situacao"}},
			{Name: "insemination_date", Label: "Insemination date", Type: core.FieldDate,
				Synonyms: []string{"data ia", "data inseminacao", "data cobertura"}},
			{Name: "expected_calving", Label: "Expected calving", Type: core.FieldDate,
				Synonyms: []string{"previsao parto", "data prevista parto", "previsao"}},
			{Name: "days_pregnant", Label: "Days pregnant", Type: core.FieldInteger, Max: 320,
				Synonyms: []string{"dias gestacao", "dias prenhez", "dias"}},
			{Name: "veterinarian", Label: "Veterinarian", Type: core.FieldText,
				Synonyms: []string{"veterinario", "vet", "responsavel"}},
		},
		Layout: []string{"series", "rg", "diagnosis_date", "result", "insemination_date", "expected_calving"},
		Required: map[core.Mode][]string{
			core.ModeCreate:    {"result"},
			core.ModeOverwrite: {"result"},
		},
		MinColumns: 3,
		Rules: []core.RuleFunc{
			core.NotBefore("diagnosis_date", "insemination_date"),
			core.NotBefore("expected_calving", "diagnosis_date"),
		},
		Build: func(row *core.RowValues) core.Record {
			v := row.Fields
			return &Gestation{
				Series:           v.Text("series"),
				RG:               v.Text("rg"),
				DiagnosisDate:    dateOrZero(v, "diagnosis_date"),
				Result:           v.String("result"),
				InseminationDate: v.Date("insemination_date"),
				ExpectedCalving:  v.Date("expected_calving"),
				DaysPregnant:     v.Int("days_pregnant"),
				Veterinarian:     v.String("veterinarian"),
				Extras:           extras(row),
			}
		},
	})
}
