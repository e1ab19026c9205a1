package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLineageGroups(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []LineageGroup
	}{
		{
			name:  "code and number tokens",
			input: "COLOSSO FTV CJCJ 179",
			want:  []LineageGroup{{Name: "COLOSSO FTV", Series: "CJCJ", Registration: "179"}},
		},
		{
			name:  "hyphenated pair has priority",
			input: "VAIDOSO CJCJ-150 RPT 1001",
			want: []LineageGroup{
				{Name: "VAIDOSO", Series: "CJCJ", Registration: "150"},
				{Series: "RPT", Registration: "1001"},
			},
		},
		{
			name:  "short words followed by names stay in the name",
			input: "VAIDOSO DA SILVANIA CJCJ 150",
			want:  []LineageGroup{{Name: "VAIDOSO DA SILVANIA", Series: "CJCJ", Registration: "150"}},
		},
		{
			name:  "trailing name without pair",
			input: "CJCJ 179 AVO MATERNO",
			want: []LineageGroup{
				{Series: "CJCJ", Registration: "179"},
				{Name: "AVO MATERNO"},
			},
		},
		{
			name:  "five digit numbers are not registrations",
			input: "TOURO AB 12345",
			want:  []LineageGroup{{Name: "TOURO AB 12345"}},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLineageGroups(strings.Fields(tt.input))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLineageGroups(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestLineageSplitter_Split(t *testing.T) {
	splitter := testAnimalDefinition().Splitter
	tokens := strings.Fields("FELG 931 F 17/09/2016 109 COLOSSO FTV CJCJ 179 VAIDOSO DA SILVANIA CJCJ 150 AVO MATERNO RPT 1001")

	got := splitter.Split(tokens, 13)
	want := []string{
		"FELG", "931", "F", "17/09/2016", "109",
		"COLOSSO FTV", "CJCJ", "179",
		"VAIDOSO DA SILVANIA", "CJCJ", "150",
		"AVO MATERNO", "RPT 1001",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestLineageSplitter_NoAge(t *testing.T) {
	splitter := testAnimalDefinition().Splitter
	got := splitter.Split(strings.Fields("FELG 931 F 17/09/2016 COLOSSO CJCJ-179"), 13)
	if got[4] != "" {
		t.Errorf("age slot = %q, want empty", got[4])
	}
	if got[5] != "COLOSSO" || got[6] != "CJCJ" || got[7] != "179" {
		t.Errorf("sire slots = %q", got[5:8])
	}
}

func TestLineageSplitter_ShortRowUntouched(t *testing.T) {
	splitter := testAnimalDefinition().Splitter
	in := []string{"FELG", "931"}
	if got := splitter.Split(in, 13); !cmp.Equal(got, in) {
		t.Errorf("Split(short) = %q, want %q", got, in)
	}
}

func TestTailJoinSplitter(t *testing.T) {
	got := TailJoinSplitter{}.Split(strings.Fields("FELG 931 01/02/2023 COLOSSO DA FTV"), 4)
	want := []string{"FELG", "931", "01/02/2023", "COLOSSO DA FTV"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}
