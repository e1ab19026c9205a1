package schema

import (
	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/core/entities"
)

// InseminationColumns are the columns of the inseminations table.
var InseminationColumns = []Column{
	{Name: "series", Type: ColText, Key: true},
	{Name: "rg", Type: ColText, Key: true},
	{Name: "insemination_date", Type: ColDate, Key: true},
	{Name: "bull", Type: ColText},
	{Name: "inseminator", Type: ColText},
	{Name: "protocol", Type: ColText},
	{Name: "straws", Type: ColInteger},
	{Name: "cost", Type: ColNumeric},
	{Name: "notes", Type: ColText},
	{Name: "extras", Type: ColJSON},
}

// FIVColumns are the columns of the fiv_procedures table.
var FIVColumns = []Column{
	{Name: "donor_series", Type: ColText, Key: true},
	{Name: "donor_rg", Type: ColText, Key: true},
	{Name: "aspiration_date", Type: ColDate, Key: true},
	{Name: "bull", Type: ColText},
	{Name: "oocytes", Type: ColInteger},
	{Name: "embryos", Type: ColInteger},
	{Name: "lab", Type: ColText},
	{Name: "cost", Type: ColNumeric},
	{Name: "extras", Type: ColJSON},
}

// BirthColumns are the columns of the births table.
var BirthColumns = []Column{
	{Name: "dam_series", Type: ColText, Key: true},
	{Name: "dam_rg", Type: ColText, Key: true},
	{Name: "birth_date", Type: ColDate, Key: true},
	{Name: "calf_series", Type: ColText},
	{Name: "calf_rg", Type: ColText},
	{Name: "calf_sex", Type: ColText},
	{Name: "sire", Type: ColText},
	{Name: "birth_weight_kg", Type: ColNumeric},
	{Name: "calving_ease", Type: ColText},
	{Name: "extras", Type: ColJSON},
}

// GestationColumns are the columns of the gestation_diagnoses table.
var GestationColumns = []Column{
	{Name: "series", Type: ColText, Key: true},
	{Name: "rg", Type: ColText, Key: true},
	{Name: "diagnosis_date", Type: ColDate, Key: true},
	{Name: "result", Type: ColText},
	{Name: "insemination_date", Type: ColDate},
	{Name: "expected_calving", Type: ColDate},
	{Name: "days_pregnant", Type: ColInteger},
	{Name: "veterinarian", Type: ColText},
	{Name: "extras", Type: ColJSON},
}

func inseminationArgs(rec core.Record) ([]any, error) {
	i, ok := rec.(*entities.Insemination)
	if !ok {
		return nil, wrongRecord(core.EntityInsemination, rec)
	}
	return []any{
		key(i.Series), key(i.RG), date(&i.Date),
		text(i.Bull), text(i.Inseminator), text(i.Protocol), integer(i.Straws),
		numeric(i.Cost), text(i.Notes), extras(i.Extras),
	}, nil
}

func fivArgs(rec core.Record) ([]any, error) {
	f, ok := rec.(*entities.InVitroFertilization)
	if !ok {
		return nil, wrongRecord(core.EntityFIV, rec)
	}
	return []any{
		key(f.DonorSeries), key(f.DonorRG), date(&f.AspirationDate),
		text(f.Bull), integer(f.Oocytes), integer(f.Embryos), text(f.Lab),
		numeric(f.Cost), extras(f.Extras),
	}, nil
}

func birthArgs(rec core.Record) ([]any, error) {
	b, ok := rec.(*entities.Birth)
	if !ok {
		return nil, wrongRecord(core.EntityBirth, rec)
	}
	return []any{
		key(b.DamSeries), key(b.DamRG), date(&b.BirthDate),
		text(b.CalfSeries), text(b.CalfRG), sex(b.CalfSex), text(b.Sire),
		numeric(b.BirthWeight), text(b.CalvingEase), extras(b.Extras),
	}, nil
}

func gestationArgs(rec core.Record) ([]any, error) {
	g, ok := rec.(*entities.Gestation)
	if !ok {
		return nil, wrongRecord(core.EntityGestation, rec)
	}
	return []any{
		key(g.Series), key(g.RG), date(&g.DiagnosisDate),
		text(g.Result), date(g.InseminationDate), date(g.ExpectedCalving),
		integer(g.DaysPregnant), text(g.Veterinarian), extras(g.Extras),
	}, nil
}

func init() {
	Register(&Table{Entity: core.EntityInsemination, Name: "inseminations", Columns: InseminationColumns, Args: inseminationArgs})
	Register(&Table{Entity: core.EntityFIV, Name: "fiv_procedures", Columns: FIVColumns, Args: fivArgs})
	Register(&Table{Entity: core.EntityBirth, Name: "births", Columns: BirthColumns, Args: birthArgs})
	Register(&Table{Entity: core.EntityGestation, Name: "gestation_diagnoses", Columns: GestationColumns, Args: gestationArgs})
}
