package core

import "sort"

// PreviewSummary contains the counts shown before a commit.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	AcceptedRows    int `json:"acceptedRows"`
	ErrorRows       int `json:"errorRows"`
	MergedRows      int `json:"mergedRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// ColumnBinding shows which source column feeds a canonical field.
type ColumnBinding struct {
	Field  string `json:"field"`
	Label  string `json:"label"`
	Column string `json:"column,omitempty"`
	Source string `json:"source,omitempty"` // ColumnReference text form
}

// RowPreview is one accepted record for display.
type RowPreview struct {
	Row        int    `json:"row"`
	SourceRows []int  `json:"sourceRows,omitempty"`
	Key        string `json:"key"`
	Record     Record `json:"record"`
}

// DuplicatePreview is a natural key that appears on more than one row.
type DuplicatePreview struct {
	Key  string `json:"key"`
	Rows []int  `json:"rows"`
}

// PreviewResponse is what the operator sees before committing.
type PreviewResponse struct {
	ImportID         string             `json:"importId"`
	Entity           EntityType         `json:"entityType"`
	Mode             Mode               `json:"mode"`
	Action           string             `json:"action"`
	Summary          PreviewSummary     `json:"summary"`
	Bindings         []ColumnBinding    `json:"bindings"`
	Warnings         []MappingWarning   `json:"warnings,omitempty"`
	AcceptedSamples  []RowPreview       `json:"acceptedSamples"`
	Messages         []string           `json:"messages"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples,omitempty"`
	Fatal            *StructuralError   `json:"fatal,omitempty"`
}

const (
	maxAcceptedSamples  = 10
	maxDuplicateSamples = 10
)

// BuildPreview summarizes result for display. maxMessages bounds the
// reason list; zero or less means no bound.
func BuildPreview(result *ImportResult, maxMessages int) *PreviewResponse {
	resp := &PreviewResponse{
		ImportID: result.ID,
		Entity:   result.Entity,
		Mode:     result.Mode,
		Action:   result.Mode.PersistAction(),
		Summary: PreviewSummary{
			TotalRows:    result.TotalRows,
			AcceptedRows: len(result.Accepted),
			ErrorRows:    len(result.Errors),
			MergedRows:   result.Merged,
		},
		Warnings: result.Warnings,
		Messages: result.Messages(maxMessages),
		Fatal:    result.Fatal,
	}
	if def, ok := Get(result.Entity); ok && result.Mapping != nil {
		resp.Bindings = bindings(def, result)
	}

	for i, a := range result.Accepted {
		if i >= maxAcceptedSamples {
			break
		}
		resp.AcceptedSamples = append(resp.AcceptedSamples, RowPreview{
			Row:        a.Row,
			SourceRows: a.SourceRows,
			Key:        DisplayKey(a.Record.NaturalKey()),
			Record:     a.Record,
		})
	}

	dups := duplicates(result)
	for _, d := range dups {
		resp.Summary.DuplicateInFile += len(d.Rows) - 1
	}
	if len(dups) > maxDuplicateSamples {
		dups = dups[:maxDuplicateSamples]
	}
	resp.DuplicateSamples = dups
	return resp
}

func bindings(def *EntityDefinition, result *ImportResult) []ColumnBinding {
	out := make([]ColumnBinding, 0, len(def.Fields))
	for _, f := range def.Fields {
		b := ColumnBinding{Field: f.Name, Label: f.Label}
		if col, ok := result.Mapping.Columns[f.Name]; ok && col < len(result.Headers) {
			b.Column = result.Headers[col].Name
			if binding, ok := result.Mapping.Mapping[f.Name]; ok {
				b.Source = binding.Source.String()
			}
		}
		out = append(out, b)
	}
	return out
}

// duplicates groups keys seen on several rows, whether they were merged
// or rejected.
func duplicates(result *ImportResult) []DuplicatePreview {
	rows := make(map[string][]int)
	for _, a := range result.Accepted {
		if len(a.SourceRows) > 1 {
			key := DisplayKey(a.Record.NaturalKey())
			rows[key] = append(rows[key], a.SourceRows...)
		}
	}
	firstRow := make(map[string]int, len(result.Accepted))
	for _, a := range result.Accepted {
		firstRow[DisplayKey(a.Record.NaturalKey())] = a.Row
	}
	for _, e := range result.Errors {
		if e.Code != ReasonDuplicateKey {
			continue
		}
		if len(rows[e.Value]) == 0 {
			rows[e.Value] = []int{firstRow[e.Value]}
		}
		rows[e.Value] = append(rows[e.Value], e.Row)
	}

	out := make([]DuplicatePreview, 0, len(rows))
	for key, r := range rows {
		sort.Ints(r)
		out = append(out, DuplicatePreview{Key: key, Rows: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rows[0] < out[j].Rows[0] })
	return out
}
