package core

import (
	"regexp"
	"strings"
)

// TrailingSplitter reshapes a whitespace tokenized row onto an entity's
// positional layout. Free-text names contain spaces, so the trailing part
// of such rows is ambiguous and needs an explicit strategy.
type TrailingSplitter interface {
	Name() string
	Split(tokens []string, width int) []string
}

// TailJoinSplitter copies the first width-1 tokens and joins the rest into
// the last column.
type TailJoinSplitter struct{}

func (TailJoinSplitter) Name() string { return "tail-join" }

func (TailJoinSplitter) Split(tokens []string, width int) []string {
	if width <= 0 || len(tokens) <= width {
		return tokens
	}
	out := make([]string, width)
	copy(out, tokens[:width-1])
	out[width-1] = strings.Join(tokens[width-1:], " ")
	return out
}

// LineageSlots are the layout positions of one parent group.
type LineageSlots struct {
	Name, Series, Registration int
}

// LineageSplitter splits trailing tokens into parent groups, each a
// free-text name closed by a lineage pair. Pairs are recognized in this
// priority order:
//
//  1. a single CODE-NNN token (2-4 letters, hyphen, 3-4 digits);
//  2. a 2-4 letter code token followed by a 3-4 digit token.
//
// Tokens that close no pair are name text. Groups fill Groups in order;
// the next group goes to TailName and TailPair, and anything after that
// is appended to TailName.
type LineageSplitter struct {
	Lead        int // tokens copied verbatim into slots 0..Lead-1
	NumericSlot int // slot for an optional short number after the lead; -1 for none
	Groups      []LineageSlots
	TailName    int
	TailPair    int
}

var (
	hyphenPair   = regexp.MustCompile(`^([A-Za-z]{2,4})-(\d{3,4})$`)
	lineageCode  = regexp.MustCompile(`^[A-Za-z]{2,4}$`)
	lineageNum   = regexp.MustCompile(`^\d{3,4}$`)
	shortNumeric = regexp.MustCompile(`^\d{1,3}$`)
)

func (LineageSplitter) Name() string { return "lineage-pair" }

// LineageGroup is one parsed parent reference.
type LineageGroup struct {
	Name, Series, Registration string
}

// ParseLineageGroups applies the pair priority rules to tokens.
func ParseLineageGroups(tokens []string) []LineageGroup {
	var groups []LineageGroup
	var pending []string
	emit := func(series, rg string) {
		groups = append(groups, LineageGroup{Name: strings.Join(pending, " "), Series: series, Registration: rg})
		pending = nil
	}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if m := hyphenPair.FindStringSubmatch(tok); m != nil {
			emit(m[1], m[2])
			continue
		}
		if lineageCode.MatchString(tok) && i+1 < len(tokens) && lineageNum.MatchString(tokens[i+1]) {
			emit(tok, tokens[i+1])
			i++
			continue
		}
		pending = append(pending, tok)
	}
	if len(pending) > 0 {
		emit("", "")
	}
	return groups
}

func (s LineageSplitter) Split(tokens []string, width int) []string {
	if len(tokens) <= s.Lead {
		return tokens
	}
	out := make([]string, width)
	copy(out, tokens[:s.Lead])
	rest := tokens[s.Lead:]
	if s.NumericSlot >= 0 && len(rest) > 0 && shortNumeric.MatchString(rest[0]) {
		out[s.NumericSlot] = rest[0]
		rest = rest[1:]
	}

	var tail []string
	for i, g := range ParseLineageGroups(rest) {
		switch {
		case i < len(s.Groups):
			slots := s.Groups[i]
			set(out, slots.Name, g.Name)
			set(out, slots.Series, g.Series)
			set(out, slots.Registration, g.Registration)
		case i == len(s.Groups):
			if g.Name != "" {
				tail = append(tail, g.Name)
			}
			if g.Series != "" {
				set(out, s.TailPair, g.Series+" "+g.Registration)
			}
		default:
			tail = append(tail, strings.TrimSpace(g.Name+" "+g.Series+" "+g.Registration))
		}
	}
	set(out, s.TailName, strings.Join(tail, " "))
	return out
}

func set(cells []string, idx int, v string) {
	if idx >= 0 && idx < len(cells) {
		cells[idx] = v
	}
}
