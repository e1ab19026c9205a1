package core

import (
	"encoding/csv"
	"strings"
)

// SplitText turns decoded text into a RawTable.
//
// Lines are split on any line break and blank lines are dropped before
// numbering. The delimiter is chosen once, from the first non-empty line,
// by priority: tab, pipe, comma, whitespace runs. A line without the
// delimiter becomes a single-cell row.
func SplitText(text, container string) (*RawTable, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return &RawTable{Container: container}, ErrEmptyInput
	}

	delim := chooseDelimiter(lines[0])
	table := &RawTable{
		Rows:      make([]RawRow, 0, len(lines)),
		Delimiter: delim,
		Container: container,
	}
	for i, line := range lines {
		table.Rows = append(table.Rows, RawRow{
			Index: i + 1,
			Cells: splitLine(line, delim),
		})
	}
	return table, nil
}

// splitLines returns the non-blank lines of text.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func chooseDelimiter(first string) Delimiter {
	switch {
	case strings.Contains(first, "\t"):
		return DelimTab
	case strings.Contains(first, "|"):
		return DelimPipe
	case strings.Contains(first, ","):
		return DelimComma
	default:
		return DelimWhitespace
	}
}

func splitLine(line string, delim Delimiter) []string {
	var cells []string
	switch delim {
	case DelimTab:
		cells = strings.Split(line, "\t")
	case DelimPipe:
		cells = strings.Split(line, "|")
	case DelimComma:
		cells = splitCSVLine(line)
	default:
		cells = strings.Fields(line)
	}
	for i, c := range cells {
		cells[i] = CleanCell(c)
	}
	if delim == DelimPipe {
		return cells
	}
	return trimTrailingEmpty(cells)
}

// splitCSVLine parses one line with CSV quoting rules. Lines that are not
// valid CSV fall back to a plain split.
func splitCSVLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}

// trimTrailingEmpty drops empty cells after the last non-empty one, which
// spreadsheet selections often carry. Pipe entry lines keep theirs since
// they count toward the column minimum. At least one cell is always kept.
func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 1 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
