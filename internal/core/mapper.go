package core

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// MappingWarning is surfaced to the operator in the preview; it never
// rejects rows by itself.
type MappingWarning struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Columns []string `json:"columns,omitempty"`
}

const (
	WarnAmbiguousRegistration = "ambiguous_registration"
	WarnHeuristicMapping      = "heuristic_mapping"
	WarnStalePreference       = "stale_preference"
	WarnUnknownExtraField     = "unknown_extra_field"
)

// Resolution is a FieldMapping resolved against concrete column indexes.
type Resolution struct {
	Mode      MappingMode      `json:"mappingMode"`
	Mapping   FieldMapping     `json:"fieldMapping"`
	Columns   map[string]int   `json:"-"`
	Extras    map[string]int   `json:"-"`
	Heuristic string           `json:"heuristic,omitempty"`
	Warnings  []MappingWarning `json:"warnings,omitempty"`
}

type matchPass int

const (
	passExact matchPass = iota
	passHeaderContains
	passSynonymContains
)

// AutoMap binds canonical fields to header columns using the entity's
// synonym table. Matching is pass-major: every field gets an exact-match
// attempt before any field falls back to containment, and each column is
// bound at most once. Fields with an anchor search only after the anchor's
// column, where generic anchored synonyms also apply.
func AutoMap(def *EntityDefinition, headers []ColumnHeader, cfg ImportConfiguration) *Resolution {
	res := &Resolution{Mode: MappingAuto, Mapping: FieldMapping{}, Columns: map[string]int{}}
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = NormalizeHeader(h.Name)
	}
	used := make([]bool, len(headers))
	anchored := make(map[string]bool)

	for _, pass := range []matchPass{passExact, passHeaderContains, passSynonymContains} {
		for _, field := range def.Fields {
			if _, done := res.Columns[field.Name]; done || !cfg.FieldEnabled(field.Name) {
				continue
			}
			start, synonyms := 0, field.Synonyms
			if field.Anchor != "" {
				if idx, ok := res.Columns[field.Anchor]; ok {
					start = idx + 1
					synonyms = append(append([]string(nil), field.Synonyms...), field.AnchoredSynonyms...)
				}
			}
			for col := start; col < len(headers); col++ {
				if used[col] || !matchHeader(pass, norm[col], synonyms) {
					continue
				}
				used[col] = true
				res.Columns[field.Name] = col
				res.Mapping[field.Name] = FieldBinding{Enabled: true, Source: referenceFor(headers, col)}
				if start > 0 {
					anchored[field.Name] = true
				}
				break
			}
		}
	}

	if w, ok := registrationAmbiguity(def, headers, norm, res, anchored); ok {
		res.Warnings = append(res.Warnings, w)
	}
	return res
}

func matchHeader(pass matchPass, header string, synonyms []string) bool {
	if header == "" {
		return false
	}
	for _, syn := range synonyms {
		switch pass {
		case passExact:
			if header == syn {
				return true
			}
		case passHeaderContains:
			if containsPhrase(header, syn) {
				return true
			}
		case passSynonymContains:
			// Very short headers like "rg" would be contained in half the table.
			if len(header) >= 3 && containsPhrase(syn, header) {
				return true
			}
		}
	}
	return false
}

// referenceFor builds the most specific reference for column col: a
// name|position pair when the header name is duplicated.
func referenceFor(headers []ColumnHeader, col int) ColumnReference {
	h := headers[col]
	if h.Name == PositionalName(col) {
		return ByPosition(col)
	}
	want := NormalizeHeader(h.Name)
	for i, other := range headers {
		if i != col && NormalizeHeader(other.Name) == want {
			return ByNameAt(h.Name, col)
		}
	}
	return ByName(h.Name)
}

var registrationTokens = []string{"rg", "rgn", "rgd", "registro"}

// registrationAmbiguity flags sheets where more than one column could hold
// a registration number and the choice was not made by exact, unique
// header names.
func registrationAmbiguity(def *EntityDefinition, headers []ColumnHeader, norm []string, res *Resolution, anchored map[string]bool) (MappingWarning, bool) {
	var candidates []int
	for i, h := range norm {
		for _, tok := range registrationTokens {
			if hasToken(h, tok) {
				candidates = append(candidates, i)
				break
			}
		}
	}
	if len(candidates) < 2 {
		return MappingWarning{}, false
	}

	uncertain := false
	var chosen []string
	for _, field := range def.Fields {
		if !isRegistrationField(field) {
			continue
		}
		col, ok := res.Columns[field.Name]
		if !ok {
			continue
		}
		chosen = append(chosen, fmt.Sprintf("%s=%s", field.Name, referenceFor(headers, col)))
		if anchored[field.Name] || !exactSynonym(field, norm[col]) {
			uncertain = true
		}
	}
	bound := make(map[int]bool)
	for _, col := range res.Columns {
		bound[col] = true
	}
	cols := make([]string, 0, len(candidates))
	for _, c := range candidates {
		cols = append(cols, referenceFor(headers, c).String())
		if !bound[c] {
			uncertain = true
		}
	}
	if !uncertain {
		return MappingWarning{}, false
	}
	return MappingWarning{
		Code:    WarnAmbiguousRegistration,
		Message: "several columns look like registration numbers; confirm " + strings.Join(chosen, ", "),
		Columns: cols,
	}, true
}

func isRegistrationField(f FieldSpec) bool {
	return f.Name == "rg" || strings.HasSuffix(f.Name, "_rg")
}

func exactSynonym(f FieldSpec, header string) bool {
	for _, s := range f.Synonyms {
		if s == header {
			return true
		}
	}
	return false
}

// PositionalMap binds the entity layout to "Column N" references for
// headerless sheets.
func PositionalMap(def *EntityDefinition, headers []ColumnHeader, cfg ImportConfiguration) *Resolution {
	res := &Resolution{Mode: MappingAuto, Mapping: FieldMapping{}, Columns: map[string]int{}}
	for i, name := range def.Layout {
		if i >= len(headers) {
			break
		}
		if name == "" || !cfg.FieldEnabled(name) {
			continue
		}
		res.Columns[name] = i
		res.Mapping[name] = FieldBinding{Enabled: true, Source: ByPosition(i)}
	}
	return res
}

// ManualMap validates a caller-supplied mapping and resolves it.
func ManualMap(def *EntityDefinition, headers []ColumnHeader, mapping FieldMapping, cfg ImportConfiguration) (*Resolution, error) {
	if err := mapping.Check(def, headers); err != nil {
		return nil, err
	}
	res := &Resolution{Mode: MappingManual, Mapping: FieldMapping{}, Columns: map[string]int{}}
	for name, b := range mapping {
		if !b.Enabled || !cfg.FieldEnabled(name) {
			res.Mapping[name] = FieldBinding{Enabled: false, Source: b.Source}
			continue
		}
		col, _ := b.Source.Resolve(headers)
		res.Columns[name] = col
		res.Mapping[name] = b
	}
	return res, nil
}

// narrowColumnRule force-maps a degenerate three column animal sheet
// (series, registration, maternal grandsire) that ordinary matching cannot
// bind. It is evaluated once, after standard detection, and always leaves
// a heuristic warning behind.
type narrowColumnRule struct {
	Name    string
	Entity  EntityType
	Columns int
	Fields  []string
}

var seriesRgGrandsire = narrowColumnRule{
	Name:    "series-rg-grandsire",
	Entity:  EntityAnimal,
	Columns: 3,
	Fields:  []string{"series", "rg", "maternal_grandsire"},
}

var (
	seriesShape       = regexp.MustCompile(`^[A-Za-z]{1,6}$`)
	registrationShape = regexp.MustCompile(`^\d{1,8}$`)
)

const narrowRuleSample = 5

// applies reports whether standard detection failed on a sheet of the
// rule's shape and every sampled data row looks like code, number, text.
func (r narrowColumnRule) applies(def *EntityDefinition, headers []ColumnHeader, headerRow bool, res *Resolution, rows []RawRow) bool {
	if def.Type != r.Entity || len(headers) != r.Columns {
		return false
	}
	_, hasSeries := res.Columns["series"]
	_, hasRg := res.Columns["rg"]
	failed := !hasSeries || !hasRg
	if !headerRow {
		// Positional layout binds the third column to sex; that binding is
		// only a failure when the column does not hold sex codes.
		failed = true
		for _, row := range sample(rows, narrowRuleSample) {
			if len(row.Cells) > 2 {
				if _, ok := ParseSex(row.Cells[2]); ok {
					failed = false
				}
			}
		}
	}
	if !failed {
		return false
	}

	matched := 0
	for _, row := range sample(rows, narrowRuleSample) {
		if len(row.Cells) < r.Columns {
			return false
		}
		third := row.Cells[2]
		if !seriesShape.MatchString(row.Cells[0]) || !registrationShape.MatchString(row.Cells[1]) ||
			third == "" || registrationShape.MatchString(third) {
			return false
		}
		matched++
	}
	return matched > 0
}

func (r narrowColumnRule) resolve(headers []ColumnHeader) *Resolution {
	res := &Resolution{
		Mode:      MappingAuto,
		Mapping:   FieldMapping{},
		Columns:   map[string]int{},
		Heuristic: r.Name,
	}
	for i, name := range r.Fields {
		res.Columns[name] = i
		res.Mapping[name] = FieldBinding{Enabled: true, Source: referenceFor(headers, i)}
	}
	res.Warnings = append(res.Warnings, MappingWarning{
		Code:    WarnHeuristicMapping,
		Message: fmt.Sprintf("columns force-mapped by the %q rule; verify before committing", r.Name),
		Columns: []string{headers[0].Name, headers[1].Name, headers[2].Name},
	})
	return res
}

func sample(rows []RawRow, n int) []RawRow {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// ResolveMapping produces the Resolution for one import. Precedence:
// caller manual mapping, caller auto request, stored manual preference,
// automatic or positional detection, then the narrow-column rule.
func ResolveMapping(def *EntityDefinition, sniff SniffResult, data []RawRow, cfg ImportConfiguration, logger *slog.Logger) (*Resolution, error) {
	headers := sniff.Headers

	var res *Resolution
	stale := false
	switch {
	case cfg.MappingMode() == MappingManual:
		r, err := ManualMap(def, headers, cfg.Mapping(), cfg)
		if err != nil {
			return nil, err
		}
		res = r
	case cfg.MappingMode() == "":
		if pref, ok := cfg.Preference(def.Type); ok && pref.MappingMode == MappingManual {
			r, err := ManualMap(def, headers, pref.FieldMapping, cfg)
			if err == nil {
				res = r
				break
			}
			stale = true
			logger.Warn("stored mapping does not fit this sheet, using automatic mapping",
				"entity", def.Type, "error", err)
		}
	}

	if res == nil {
		if sniff.HeaderRow {
			res = AutoMap(def, headers, cfg)
		} else {
			res = PositionalMap(def, headers, cfg)
		}
		if seriesRgGrandsire.applies(def, headers, sniff.HeaderRow, res, data) {
			logger.Warn("heuristic fallback mapping applied",
				"rule", seriesRgGrandsire.Name, "entity", def.Type, "columns", len(headers))
			res = seriesRgGrandsire.resolve(headers)
		}
	}
	if stale {
		res.Warnings = append(res.Warnings, MappingWarning{
			Code:    WarnStalePreference,
			Message: "the saved mapping references missing columns and was ignored",
		})
	}

	res.Extras = resolveExtras(headers, extraFields(def, cfg), res)
	return res, nil
}

func extraFields(def *EntityDefinition, cfg ImportConfiguration) []string {
	if extras := cfg.ExtraFields(); len(extras) > 0 {
		return extras
	}
	if pref, ok := cfg.Preference(def.Type); ok {
		return pref.ExtraFields
	}
	return nil
}

func resolveExtras(headers []ColumnHeader, names []string, res *Resolution) map[string]int {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		ref, err := ParseColumnReference(name)
		if err != nil {
			continue
		}
		col, ok := ref.Resolve(headers)
		if !ok {
			res.Warnings = append(res.Warnings, MappingWarning{
				Code:    WarnUnknownExtraField,
				Message: fmt.Sprintf("extra field %q not found in the sheet", name),
			})
			continue
		}
		out[headers[col].Name] = col
	}
	return out
}
