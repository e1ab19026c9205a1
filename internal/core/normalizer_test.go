package core

import (
	"strings"
	"testing"
)

const e2eRow = "FELG\t931\tF\t17/09/2016\t109\tCOLOSSO FTV\tCJCJ\t179\tVAIDOSO DA SILVANIA\tCJCJ\t150\tAVO MATERNO\tRPT 1001"

func positionalRow(t *testing.T, line string, cfg ImportConfiguration) (*RowValues, *RowError) {
	t.Helper()
	def := testAnimalDefinition()
	cells := strings.Split(line, "\t")
	res := PositionalMap(def, PositionalHeaders(len(def.Layout)), cfg)
	return NormalizeRow(def, res, RawRow{Index: 1, Cells: cells}, cfg)
}

// ============================================================================
// NormalizeRow Tests
// ============================================================================

func TestNormalizeRow_ReferenceRow(t *testing.T) {
	row, rerr := positionalRow(t, e2eRow, testConfig())
	if rerr != nil {
		t.Fatalf("NormalizeRow() error: %v", rerr)
	}
	v := row.Fields

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"series", v.Text("series"), "FELG"},
		{"rg", v.Text("rg"), "931"},
		{"sex", string(deref(v.Sex("sex"))), "Fêmea"},
		{"birth_date", deref(v.Date("birth_date")).String(), "2016-09-17"},
		{"sire", v.Text("sire"), "CJCJ 179 COLOSSO FTV"},
		{"dam", v.Text("dam"), "CJCJ-150 VAIDOSO DA SILVANIA"},
		{"maternal_grandsire", v.Text("maternal_grandsire"), "AVO MATERNO"},
		{"host_mother", v.Text("host_mother"), "RPT 1001"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if age := deref(v.Int("age_months")); age != 109 {
		t.Errorf("age_months = %d, want 109", age)
	}
}

func TestNormalizeRow_InvalidDateFailsRow(t *testing.T) {
	_, rerr := positionalRow(t, "FELG\t931\tF\t32/13/2016", testConfig())
	if rerr == nil {
		t.Fatal("expected a row error")
	}
	if rerr.Code != ReasonInvalidDate || rerr.Field != "birth_date" || rerr.Value != "32/13/2016" {
		t.Errorf("got %+v, want invalid_date on birth_date", rerr)
	}
	if rerr.Row != 1 || len(rerr.Raw) != 4 {
		t.Errorf("row error should carry row number and raw payload, got row %d raw %v", rerr.Row, rerr.Raw)
	}
	if !strings.Contains(rerr.Error(), `"32/13/2016"`) {
		t.Errorf("Error() = %q should name the raw value", rerr.Error())
	}
}

func TestNormalizeRow_InvalidNumberFailsRow(t *testing.T) {
	_, rerr := positionalRow(t, "FELG\t931\tF\t17/09/2016\tnove", testConfig())
	if rerr == nil || rerr.Code != ReasonInvalidNumber {
		t.Errorf("got %v, want invalid_number", rerr)
	}
}

func TestNormalizeRow_OutOfDomainNumberIsNull(t *testing.T) {
	// 42630 is a date serial that landed in the age column.
	row, rerr := positionalRow(t, "FELG\t931\tF\t\t42630", testConfig())
	if rerr != nil {
		t.Fatalf("NormalizeRow() error: %v", rerr)
	}
	if row.Fields.Has("age_months") {
		t.Errorf("age_months = %v, want null", row.Fields["age_months"])
	}
}

func TestNormalizeRow_UnknownSexIsSoft(t *testing.T) {
	row, rerr := positionalRow(t, "FELG\t931\tX", testConfig())
	if rerr != nil {
		t.Fatalf("NormalizeRow() error: %v", rerr)
	}
	if row.Fields.Has("sex") {
		t.Error("unknown sex should normalize to null")
	}
	if row.Rejected["sex"] != "X" {
		t.Errorf("Rejected[sex] = %q, want X", row.Rejected["sex"])
	}
}

func TestNormalizeRow_DerivedAge(t *testing.T) {
	row, rerr := positionalRow(t, "FELG\t931\tF\t01/05/2024", testConfig())
	if rerr != nil {
		t.Fatalf("NormalizeRow() error: %v", rerr)
	}
	// 31 days before the reference date.
	if age := deref(row.Fields.Int("age_months")); age != 2 {
		t.Errorf("age_months = %d, want 2", age)
	}

	disabled, _ := positionalRow(t, "FELG\t931\tF\t01/05/2024", testConfig(WithDisabledFields("age_months")))
	if disabled.Fields.Has("age_months") {
		t.Error("disabled age should not be derived")
	}
}

func TestNormalizeRow_Extras(t *testing.T) {
	def := testAnimalDefinition()
	cfg := testConfig()
	res := AutoMap(def, headersOf("Serie", "RG", "Brinco"), cfg)
	res.Extras = map[string]int{"Brinco": 2}

	row, rerr := NormalizeRow(def, res, RawRow{Index: 2, Cells: []string{"FELG", "931", " 0042 "}}, cfg)
	if rerr != nil {
		t.Fatalf("NormalizeRow() error: %v", rerr)
	}
	if row.Extras["Brinco"] != "0042" {
		t.Errorf("Extras[Brinco] = %q, want 0042", row.Extras["Brinco"])
	}
}

func TestAssembleGenealogy(t *testing.T) {
	tests := []struct {
		name, sName, series, rg, sep string
		want                         string
	}{
		{"all parts", "COLOSSO FTV", "CJCJ", "179", " ", "CJCJ 179 COLOSSO FTV"},
		{"hyphen separator", "VAIDOSO", "CJCJ", "150", "-", "CJCJ-150 VAIDOSO"},
		{"pair only", "", "CJCJ", "179", " ", "CJCJ 179"},
		{"name only", "COLOSSO", "", "", " ", "COLOSSO"},
		{"series and name", "COLOSSO", "CJCJ", "", " ", "CJCJ COLOSSO"},
		{"registration and name", "COLOSSO", "", "179", "-", "179 COLOSSO"},
		{"default separator", "X", "AB", "12", "", "AB 12 X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssembleGenealogy(tt.sName, tt.series, tt.rg, tt.sep); got != tt.want {
				t.Errorf("AssembleGenealogy() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// ValidateRow Tests
// ============================================================================

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		opts     []ConfigOption
		wantCode ReasonCode
	}{
		{name: "complete create row", line: "FELG\t931\tF\t17/09/2016"},
		{name: "missing birth date", line: "FELG\t931\tF", wantCode: ReasonMissingRequired},
		{name: "missing registration", line: "FELG\t\tF\t17/09/2016", wantCode: ReasonMissingRequired},
		{name: "unknown sex when required", line: "FELG\t931\tX\t17/09/2016", wantCode: ReasonInvalidSex},
		{
			name: "unknown sex when disabled",
			line: "FELG\t931\tX\t17/09/2016",
			opts: []ConfigOption{WithDisabledFields("sex")},
		},
		{
			name: "birth date disabled",
			line: "FELG\t931\tF",
			opts: []ConfigOption{WithDisabledFields("birth_date")},
		},
		{
			name:     "update without target",
			line:     "FELG\t931",
			opts:     []ConfigOption{WithMode(ModeReconcileUpdate)},
			wantCode: ReasonNoUpdateTarget,
		},
		{
			name: "update with sire",
			line: "FELG\t931\t\t\t\tCOLOSSO",
			opts: []ConfigOption{WithMode(ModeReconcileUpdate)},
		},
		{
			name: "update with host mother only",
			line: "FELG\t931\t\t\t\t\t\t\t\t\t\t\tRPT 1001",
			opts: []ConfigOption{WithMode(ModeReconcileUpdate)},
		},
		{
			name: "update ignores missing sex",
			line: "FELG\t931\tX\t\t\t\tCJCJ\t179",
			opts: []ConfigOption{WithMode(ModeReconcileUpdate)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(tt.opts...)
			row, rerr := positionalRow(t, tt.line, cfg)
			if rerr != nil {
				t.Fatalf("NormalizeRow() error: %v", rerr)
			}
			got := ValidateRow(testAnimalDefinition(), row, cfg)
			switch {
			case tt.wantCode == "" && got != nil:
				t.Errorf("ValidateRow() = %v, want accepted", got)
			case tt.wantCode != "" && got == nil:
				t.Errorf("ValidateRow() accepted, want %s", tt.wantCode)
			case got != nil && got.Code != tt.wantCode:
				t.Errorf("ValidateRow() code = %s, want %s", got.Code, tt.wantCode)
			}
			if got != nil && (got.Row != 1 || len(got.Raw) == 0) {
				t.Errorf("row error missing row number or raw payload: %+v", got)
			}
		})
	}
}

func TestEntityRules(t *testing.T) {
	row := func(fields Values) *RowValues { return &RowValues{Row: 3, Fields: fields} }
	early, late := NewDate(2024, 1, 10), NewDate(2024, 3, 1)

	notBefore := NotBefore("diagnosis_date", "insemination_date")
	if rerr := notBefore(row(Values{"diagnosis_date": late, "insemination_date": early}), ModeCreate); rerr != nil {
		t.Errorf("NotBefore in order = %v, want nil", rerr)
	}
	if rerr := notBefore(row(Values{"diagnosis_date": late}), ModeCreate); rerr != nil {
		t.Errorf("NotBefore with one side missing = %v, want nil", rerr)
	}
	rerr := notBefore(row(Values{"diagnosis_date": early, "insemination_date": late}), ModeCreate)
	if rerr == nil || rerr.Code != ReasonInconsistent {
		t.Errorf("NotBefore out of order = %v, want inconsistent_fields", rerr)
	}

	requires := RequiresField("calf_series", "calf_rg")
	if rerr := requires(row(Values{"calf_series": "FELG"}), ModeCreate); rerr == nil || rerr.Field != "calf_rg" {
		t.Errorf("RequiresField = %v, want error on calf_rg", rerr)
	}
	if rerr := requires(row(Values{}), ModeCreate); rerr != nil {
		t.Errorf("RequiresField on empty row = %v, want nil", rerr)
	}

	anyOf := RequireAny(ReasonNoUpdateTarget, []Mode{ModeReconcileUpdate}, "sire", "dam")
	if rerr := anyOf(row(Values{}), ModeCreate); rerr != nil {
		t.Errorf("RequireAny outside its modes = %v, want nil", rerr)
	}
	if rerr := anyOf(row(Values{}), ModeReconcileUpdate); rerr == nil || rerr.Code != ReasonNoUpdateTarget {
		t.Errorf("RequireAny = %v, want no_update_target", rerr)
	}
}

func TestUnmappedRequired(t *testing.T) {
	def := testAnimalDefinition()
	cfg := testConfig()
	res := AutoMap(def, headersOf("Serie", "RG", "Sexo"), cfg)
	warnings := UnmappedRequired(def, res, cfg)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "birth_date") {
		t.Errorf("UnmappedRequired() = %v, want one warning for birth_date", warnings)
	}
}
