package core

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// Source is one bounded input: pasted text or an uploaded file.
type Source struct {
	Name string // file name; empty for pasted text
	Data []byte
}

// TextSource wraps pasted text.
func TextSource(text string) Source {
	return Source{Data: []byte(text)}
}

// IsWorkbook reports whether src looks like an .xlsx workbook.
func (src Source) IsWorkbook() bool {
	switch strings.ToLower(filepath.Ext(src.Name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return bytes.HasPrefix(src.Data, zipMagic)
}

// ReadSource produces the RawTable for src.
func ReadSource(src Source) (*RawTable, error) {
	if len(bytes.TrimSpace(src.Data)) == 0 {
		return &RawTable{Container: src.Name}, ErrEmptyInput
	}
	if src.IsWorkbook() {
		return ReadWorkbook(src.Data)
	}
	return SplitText(DecodeText(src.Data), strings.TrimSuffix(src.Name, filepath.Ext(src.Name)))
}

// ReadWorkbook reads the first sheet of a workbook. Cells are read raw so
// date cells arrive as serial numbers, which the date normalizer accepts.
// The sheet name becomes the container name for sniffing.
func ReadWorkbook(data []byte) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadableInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &RawTable{Delimiter: DelimWorkbook}, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadableInput, sheets[0], err)
	}

	table := &RawTable{Delimiter: DelimWorkbook, Container: sheets[0]}
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = CleanCell(c)
		}
		table.Rows = append(table.Rows, RawRow{
			Index: len(table.Rows) + 1,
			Cells: trimTrailingEmpty(cells),
		})
	}
	if len(table.Rows) == 0 {
		return table, ErrEmptyInput
	}
	return table, nil
}
