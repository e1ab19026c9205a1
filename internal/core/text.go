package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var headerSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ", "(", " ", ")", " ", ":", " ")

// StripDiacritics removes combining marks: "Série" -> "Serie".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader lowercases, strips diacritics, turns separators into
// spaces and collapses whitespace. "Data_IA" and "data  ia" both become
// "data ia".
func NormalizeHeader(s string) string {
	s = StripDiacritics(strings.ToLower(s))
	s = headerSeparators.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// containsPhrase reports whether phrase occurs in normalized text on token
// boundaries, so "rg" matches "rg mae" but not "cargo".
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func hasToken(text, token string) bool {
	for _, t := range strings.Fields(text) {
		if t == token {
			return true
		}
	}
	return false
}

// CleanCell trims whitespace and spreadsheet artifacts like ="00123" and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.Join(strings.Fields(s), " ")
}
