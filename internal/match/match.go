// Package match holds the document-free half of the scanner: tokenising a
// query, finding whole-word match spans in a text, and turning spans into
// marked segments or markup.
package match

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"livefind/internal/domain"
)

// Mode selects how a query is interpreted
type Mode int

const (
	// AllWords matches when every token appears as a whole word
	AllWords Mode = iota
	// ExactPhrase matches the trimmed query as one phrase
	ExactPhrase
)

func (m Mode) String() string {
	if m == ExactPhrase {
		return "exact-phrase"
	}
	return "all-words"
}

// ModeFromLoose maps the loose flag of a search signal onto a Mode
func ModeFromLoose(loose bool) Mode {
	if loose {
		return AllWords
	}
	return ExactPhrase
}

// Query is a search request
type Query struct {
	Text string
	Mode Mode
}

// Span is a half-open byte range [Start, End)
type Span struct {
	Start int
	End   int
}

// Tokenize lowercases q and splits it on whitespace
func Tokenize(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// Matcher finds matches of one compiled query
type Matcher struct {
	mode     Mode
	patterns []*regexp.Regexp
}

// Compile builds a matcher. ok is false when the query has no tokens, in
// which case scanning is a no-op.
func Compile(q Query) (m *Matcher, ok bool) {
	tokens := Tokenize(q.Text)
	if len(tokens) == 0 {
		return nil, false
	}

	m = &Matcher{mode: q.Mode}
	switch q.Mode {
	case ExactPhrase:
		m.patterns = []*regexp.Regexp{boundaryPattern(strings.TrimSpace(q.Text))}
	default:
		seen := make(map[string]bool)
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			m.patterns = append(m.patterns, boundaryPattern(tok))
		}
	}
	return m, true
}

// Mode returns the matcher's mode
func (m *Matcher) Mode() Mode { return m.mode }

// Match reports whether text matches and which spans to mark.
// Spans are sorted and never overlap.
func (m *Matcher) Match(text string) ([]Span, bool) {
	if m.mode == ExactPhrase {
		loc := m.patterns[0].FindStringIndex(text)
		if loc == nil {
			return nil, false
		}
		return []Span{{Start: loc[0], End: loc[1]}}, true
	}

	var spans []Span
	for _, p := range m.patterns {
		locs := p.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			return nil, false
		}
		for _, loc := range locs {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
	}
	return mergeSpans(spans), true
}

// boundaryPattern builds a case-insensitive pattern for a literal. A word
// boundary is asserted only on an edge whose character is a word character,
// so "c++" still matches and "!!" degrades to a plain substring search.
func boundaryPattern(literal string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)")
	if literal != "" && isWordByte(literal[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(literal))
	if literal != "" && isWordByte(literal[len(literal)-1]) {
		b.WriteString(`\b`)
	}
	return regexp.MustCompile(b.String())
}

// isWordByte matches the ASCII class used by \b
func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func mergeSpans(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].End > spans[j].End
		}
		return spans[i].Start < spans[j].Start
	})
	out := []Span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start < last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Segments splits text into plain and marked runs. Concatenating the
// segment texts always yields text unchanged.
func Segments(text string, spans []Span) []domain.Segment {
	var out []domain.Segment
	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.End > len(text) || s.Start >= s.End {
			continue
		}
		if s.Start > pos {
			out = append(out, domain.Segment{Text: text[pos:s.Start]})
		}
		out = append(out, domain.Segment{Text: text[s.Start:s.End], Marked: true})
		pos = s.End
	}
	if pos < len(text) {
		out = append(out, domain.Segment{Text: text[pos:]})
	}
	return out
}

// Markup renders segments as HTML, wrapping marked runs in tag with the
// given attribute string. Text is escaped.
func Markup(segments []domain.Segment, tag, attrs string) string {
	var b strings.Builder
	for _, seg := range segments {
		if !seg.Marked {
			b.WriteString(html.EscapeString(seg.Text))
			continue
		}
		b.WriteString("<" + tag)
		if attrs != "" {
			b.WriteString(" " + attrs)
		}
		b.WriteString(">")
		b.WriteString(html.EscapeString(seg.Text))
		b.WriteString("</" + tag + ">")
	}
	return b.String()
}

// Plain joins segment texts
func Plain(segments []domain.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}
