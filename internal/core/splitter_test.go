package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// SplitText Tests
// ============================================================================

func TestSplitText_DelimiterChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Delimiter
	}{
		{"tab wins over comma", "FELG\t931\tNOME, SOBRENOME", DelimTab},
		{"tab wins over pipe", "a|b\tc", DelimTab},
		{"pipe wins over comma", "FELG|931|F|17/09/2016,x", DelimPipe},
		{"comma", "FELG,931,F", DelimComma},
		{"whitespace", "FELG 931 F 17/09/2016", DelimWhitespace},
		{"first non-empty line decides", "\n\n  \nFELG,931\nCJCJ\t179", DelimComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := SplitText(tt.input, "")
			if err != nil {
				t.Fatalf("SplitText() error: %v", err)
			}
			if table.Delimiter != tt.want {
				t.Errorf("Delimiter = %s, want %s", table.Delimiter, tt.want)
			}
		})
	}
}

func TestSplitText_TabDeterminism(t *testing.T) {
	input := "FELG\t931\tF\nCJCJ\t179\tCOLOSSO, FTV\nRPT\t1001\ta,b,c"
	table, err := SplitText(input, "")
	if err != nil {
		t.Fatalf("SplitText() error: %v", err)
	}
	want := [][]string{
		{"FELG", "931", "F"},
		{"CJCJ", "179", "COLOSSO, FTV"},
		{"RPT", "1001", "a,b,c"},
	}
	var got [][]string
	for _, r := range table.Rows {
		got = append(got, r.Cells)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitText_BlankLinesAndNumbering(t *testing.T) {
	input := "\r\nSerie\tRG\r\n\r\n   \nFELG\t931\r\nCJCJ\t179\n\n"
	table, err := SplitText(input, "")
	if err != nil {
		t.Fatalf("SplitText() error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}
	for i, r := range table.Rows {
		if r.Index != i+1 {
			t.Errorf("row %d Index = %d, want %d", i, r.Index, i+1)
		}
	}
	if got := table.Rows[2].Cells; !cmp.Equal(got, []string{"CJCJ", "179"}) {
		t.Errorf("last row = %v", got)
	}
}

func TestSplitText_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n\n", "   \t  \n  "} {
		table, err := SplitText(input, "")
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("SplitText(%q) error = %v, want ErrEmptyInput", input, err)
		}
		if table == nil || len(table.Rows) != 0 {
			t.Errorf("SplitText(%q) should return an empty table", input)
		}
	}
}

func TestSplitText_SingleCellRow(t *testing.T) {
	table, err := SplitText("FELG\t931\nobservacao livre", "")
	if err != nil {
		t.Fatalf("SplitText() error: %v", err)
	}
	if got := table.Rows[1].Cells; !cmp.Equal(got, []string{"observacao livre"}) {
		t.Errorf("row without delimiter = %q, want one cell", got)
	}
}

func TestSplitText_Cells(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"csv quoting", `FELG,"SILVA, JOSE",931`, []string{"FELG", "SILVA, JOSE", "931"}},
		{"spreadsheet text artifact", "FELG\t=\"00931\"", []string{"FELG", "00931"}},
		{"trailing empty cells dropped", "FELG\t931\t\t\t", []string{"FELG", "931"}},
		{"pipe keeps empty cells", "FELG|931||", []string{"FELG", "931", "", ""}},
		{"pipe cells trimmed", " FELG | 931 | F ", []string{"FELG", "931", "F"}},
		{"whitespace runs collapse", "FELG   931  F", []string{"FELG", "931", "F"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := SplitText(tt.input, "")
			if err != nil {
				t.Fatalf("SplitText() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, table.Rows[0].Cells); diff != "" {
				t.Errorf("cells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ============================================================================
// ReadSource Tests
// ============================================================================

func TestReadSource(t *testing.T) {
	t.Run("container from file name", func(t *testing.T) {
		table, err := ReadSource(Source{Name: "inseminacoes.csv", Data: []byte("FELG,931")})
		if err != nil {
			t.Fatalf("ReadSource() error: %v", err)
		}
		if table.Container != "inseminacoes" {
			t.Errorf("Container = %q, want inseminacoes", table.Container)
		}
	})

	t.Run("whitespace only is empty", func(t *testing.T) {
		_, err := ReadSource(TextSource("  \n\t\n"))
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("ReadSource() error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("broken workbook", func(t *testing.T) {
		_, err := ReadSource(Source{Name: "rebanho.xlsx", Data: []byte("PK\x03\x04 not really a zip")})
		if !errors.Is(err, ErrUnreadableInput) {
			t.Errorf("ReadSource() error = %v, want ErrUnreadableInput", err)
		}
	})
}
