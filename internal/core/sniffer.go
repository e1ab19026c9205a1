package core

import "strings"

// sniffRule classifies a sheet when any of its phrases occurs in a
// normalized first-row cell.
type sniffRule struct {
	Entity  EntityType
	Phrases []string
	// AllTokens must all appear somewhere in the row when set.
	AllTokens []string
}

// headerRules are checked in order, most specific first. Diagnosis sheets
// usually carry the insemination date too, so they are checked before it.
var headerRules = []sniffRule{
	{Entity: EntityGestation, Phrases: []string{"data dg", "dg", "diagnostico", "prenhez", "gestacao"}},
	{Entity: EntityInsemination, Phrases: []string{"data ia", "inseminacao", "data inseminacao", "inseminador"}},
	{Entity: EntityFIV, Phrases: []string{"data fiv", "fiv", "aspiracao", "oocitos", "embrioes"}},
	{Entity: EntityBirth, Phrases: []string{"data parto", "parto", "bezerro", "cria"}},
	{Entity: EntityFinancial, Phrases: []string{"valor", "vencimento", "nota fiscal", "documento", "emissao"}},
	{Entity: EntityAnimal, AllTokens: []string{"serie", "rg"}},
}

// containerRules classify by sheet or file name when no header rule matched.
var containerRules = []sniffRule{
	{Entity: EntityInsemination, Phrases: []string{"ia", "inseminacao", "inseminacoes"}},
	{Entity: EntityFIV, Phrases: []string{"fiv", "aspiracao", "aspiracoes"}},
	{Entity: EntityBirth, Phrases: []string{"parto", "partos", "nascimentos"}},
	{Entity: EntityGestation, Phrases: []string{"dg", "diagnostico", "diagnosticos", "toque"}},
	{Entity: EntityFinancial, Phrases: []string{"financeiro", "notas", "contas", "despesas"}},
	{Entity: EntityAnimal, Phrases: []string{"animais", "rebanho", "cadastro", "plantel"}},
}

// headerFragments is the closed list of tokens that mark a row as a header.
var headerFragments = map[string]bool{
	"serie": true, "rg": true, "rgn": true, "rgd": true, "nascimento": true,
	"nasc": true, "sexo": true, "pai": true, "mae": true, "receptora": true,
	"doadora": true, "touro": true, "data": true, "raca": true, "categoria": true,
	"peso": true, "idade": true, "brinco": true, "nome": true, "valor": true,
	"vencimento": true, "documento": true, "emissao": true, "diagnostico": true,
	"resultado": true, "parto": true, "bezerro": true, "inseminacao": true,
	"registro": true,
}

// SniffResult is the schema sniffer's decision.
type SniffResult struct {
	Entity    EntityType     `json:"entity"`
	HeaderRow bool           `json:"headerRow"`
	Rule      string         `json:"rule"`
	Headers   []ColumnHeader `json:"headers"`
}

// Sniff classifies the table and decides whether row 1 is a header. The
// result depends only on the first row, the container name, the hint and
// the table width.
func Sniff(table *RawTable, hint EntityType) SniffResult {
	var first []string
	if len(table.Rows) > 0 {
		first = table.Rows[0].Cells
	}
	normalized := make([]string, len(first))
	for i, c := range first {
		normalized[i] = NormalizeHeader(c)
	}

	res := SniffResult{HeaderRow: table.Delimiter == DelimWorkbook || IsHeaderRow(normalized)}
	switch {
	case hint != "":
		res.Entity, res.Rule = hint, "hint"
	default:
		res.Entity, res.Rule = classify(normalized, NormalizeHeader(table.Container))
	}

	if res.HeaderRow {
		res.Headers = make([]ColumnHeader, len(first))
		for i, c := range first {
			res.Headers[i] = ColumnHeader{Name: c, Position: i}
		}
	} else {
		res.Headers = PositionalHeaders(table.Width())
	}
	return res
}

// PositionalHeaders names n columns "Column 1" .. "Column n".
func PositionalHeaders(n int) []ColumnHeader {
	headers := make([]ColumnHeader, n)
	for i := range n {
		headers[i] = ColumnHeader{Name: PositionalName(i), Position: i}
	}
	return headers
}

// IsHeaderRow reports whether any normalized cell carries a known field
// name fragment. A row holding a value cell (a number, a date or an
// amount) is data, whatever names appear in its other cells.
func IsHeaderRow(normalized []string) bool {
	found := false
	for _, cell := range normalized {
		if isValueCell(cell) {
			return false
		}
		for _, tok := range strings.Fields(cell) {
			if headerFragments[tok] {
				found = true
			}
		}
	}
	return found
}

// isValueCell reports whether every token of a normalized cell is made of
// digits and decimal commas: "931", "17 09 2016", "1 234,56", "42630".
func isValueCell(cell string) bool {
	toks := strings.Fields(cell)
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		digits := 0
		for _, r := range tok {
			switch {
			case r >= '0' && r <= '9':
				digits++
			case r == ',':
			default:
				return false
			}
		}
		if digits == 0 {
			return false
		}
	}
	return true
}

func classify(cells []string, container string) (EntityType, string) {
	for _, rule := range headerRules {
		if rule.matches(cells) {
			return rule.Entity, "header:" + string(rule.Entity)
		}
	}
	if container != "" {
		for _, rule := range containerRules {
			if rule.matches([]string{container}) {
				return rule.Entity, "container:" + string(rule.Entity)
			}
		}
	}
	return EntityAnimal, "fallback"
}

func (r sniffRule) matches(cells []string) bool {
	if len(r.AllTokens) > 0 {
		for _, tok := range r.AllTokens {
			found := false
			for _, c := range cells {
				if hasToken(c, tok) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	for _, c := range cells {
		for _, p := range r.Phrases {
			if containsPhrase(c, p) {
				return true
			}
		}
	}
	return false
}
