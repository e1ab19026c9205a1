package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Values holds typed field values of one row. A missing key means null.
// Value types: string (text, code, enum), Date, Sex, int, decimal.Decimal.
type Values map[string]any

// Has reports whether name holds a value.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns a text value or nil.
func (v Values) String(name string) *string {
	if s, ok := v[name].(string); ok {
		return &s
	}
	return nil
}

// Text returns a text value or "".
func (v Values) Text(name string) string {
	s, _ := v[name].(string)
	return s
}

// Date returns a date value or nil.
func (v Values) Date(name string) *Date {
	if d, ok := v[name].(Date); ok {
		return &d
	}
	return nil
}

// Sex returns a sex value or nil.
func (v Values) Sex(name string) *Sex {
	if s, ok := v[name].(Sex); ok {
		return &s
	}
	return nil
}

// Int returns an integer value or nil.
func (v Values) Int(name string) *int {
	if n, ok := v[name].(int); ok {
		return &n
	}
	return nil
}

// Decimal returns a decimal value, invalid when null.
func (v Values) Decimal(name string) decimal.NullDecimal {
	if d, ok := v[name].(decimal.Decimal); ok {
		return decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return decimal.NullDecimal{}
}

// RowValues is one normalized row.
type RowValues struct {
	Row    int
	Raw    []string
	Fields Values
	Extras map[string]string

	// Rejected holds raw values of soft-failing fields (unknown sex or enum
	// codes). The validator turns them into errors only for required fields.
	Rejected map[string]string
}

func (r *RowValues) reject(field, raw string) {
	if r.Rejected == nil {
		r.Rejected = make(map[string]string)
	}
	r.Rejected[field] = raw
}

// NormalizeRow extracts and canonicalizes the mapped cells of row.
// Invalid dates and unparseable numbers fail the row; everything else
// degrades to null.
func NormalizeRow(def *EntityDefinition, res *Resolution, row RawRow, cfg ImportConfiguration) (*RowValues, *RowError) {
	out := &RowValues{Row: row.Index, Raw: row.Cells, Fields: Values{}}

	for _, spec := range def.Fields {
		col, ok := res.Columns[spec.Name]
		if !ok || col >= len(row.Cells) {
			continue
		}
		raw := CleanCell(row.Cells[col])
		if raw == "" {
			continue
		}
		if rerr := normalizeField(spec, raw, cfg, out); rerr != nil {
			rerr.Row, rerr.Raw = row.Index, row.Cells
			return nil, rerr
		}
	}

	for _, c := range def.Composites {
		if cfg.FieldEnabled(c.Target) {
			assembleComposite(c, out.Fields)
		}
	}

	if d := def.DerivedAge; d != nil && !out.Fields.Has(d.AgeField) && cfg.FieldEnabled(d.AgeField) {
		if birth := out.Fields.Date(d.BirthField); birth != nil {
			if age, ok := DeriveAgeMonths(*birth, cfg.ReferenceDate()); ok {
				out.Fields[d.AgeField] = age
			}
		}
	}

	if len(res.Extras) > 0 {
		out.Extras = make(map[string]string, len(res.Extras))
		for name, col := range res.Extras {
			if col < len(row.Cells) {
				if v := CleanCell(row.Cells[col]); v != "" {
					out.Extras[name] = v
				}
			}
		}
	}
	return out, nil
}

func normalizeField(spec FieldSpec, raw string, cfg ImportConfiguration, out *RowValues) *RowError {
	switch spec.Type {
	case FieldText:
		out.Fields[spec.Name] = raw
	case FieldCode:
		out.Fields[spec.Name] = strings.ToUpper(raw)
	case FieldDate:
		d, err := ParseDate(raw, cfg.ReferenceDate())
		if err != nil {
			return rowError(StageNormalize, ReasonInvalidDate, spec.Name, raw, "invalid date %q for %s", raw, spec.Name)
		}
		out.Fields[spec.Name] = d
	case FieldSex:
		if s, ok := ParseSex(raw); ok {
			out.Fields[spec.Name] = s
		} else {
			out.reject(spec.Name, raw)
		}
	case FieldInteger:
		n, err := ParseInteger(raw, spec.Max)
		if err != nil {
			return numberError(spec, raw, err)
		}
		if n != nil {
			out.Fields[spec.Name] = *n
		}
	case FieldDecimal:
		d, err := ParseDecimal(raw, spec.Max)
		if err != nil {
			return numberError(spec, raw, err)
		}
		if d.Valid {
			out.Fields[spec.Name] = d.Decimal
		}
	case FieldEnum:
		if v, ok := spec.EnumValues[NormalizeHeader(raw)]; ok {
			out.Fields[spec.Name] = v
		} else {
			out.reject(spec.Name, raw)
		}
	}
	return nil
}

func numberError(spec FieldSpec, raw string, err error) *RowError {
	if errors.Is(err, ErrInvalidNumber) {
		return rowError(StageNormalize, ReasonInvalidNumber, spec.Name, raw, "invalid number %q for %s", raw, spec.Name)
	}
	return rowError(StageNormalize, ReasonInvalidValue, spec.Name, raw, "%v", err)
}

// AssembleGenealogy joins a parent's lineage series and registration with
// sep, then appends the name. Either side may be missing; a present name
// is never dropped.
func AssembleGenealogy(name, series, registration, sep string) string {
	if sep == "" {
		sep = " "
	}
	var pair string
	switch {
	case series != "" && registration != "":
		pair = series + sep + registration
	case series != "":
		pair = series
	default:
		pair = registration
	}
	return strings.TrimSpace(strings.Join(nonEmpty(pair, name), " "))
}

func assembleComposite(c CompositeSpec, v Values) {
	name, series, rg := v.Text(c.Name), v.Text(c.Series), v.Text(c.Registration)
	if name == "" && series == "" && rg == "" {
		return
	}
	v[c.Target] = AssembleGenealogy(name, series, rg, c.PairSeparator)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
