package scanner

import (
	"log/slog"

	"golang.org/x/net/html"

	"livefind/internal/dom"
	"livefind/internal/highlight"
	"livefind/internal/match"
	"livefind/internal/registry"
)

// Scanner walks the candidate nodes of a document, decides per node whether
// it matches the query and hands the decision to the renderer.
type Scanner struct {
	doc       *dom.Document
	renderer  *highlight.Renderer
	selectors []string
}

// New creates a scanner over the given candidate selectors
func New(doc *dom.Document, renderer *highlight.Renderer, selectors []string) *Scanner {
	return &Scanner{doc: doc, renderer: renderer, selectors: selectors}
}

// Candidates snapshots the current candidate nodes in scan order
func (s *Scanner) Candidates() []*html.Node {
	return s.doc.QueryAll(s.selectors)
}

// CandidateCount is the number of candidate nodes currently in the document
func (s *Scanner) CandidateCount() int {
	return s.doc.Count(s.selectors)
}

// Scan matches q against every candidate, marking matches and restoring the
// rest, and returns match records in scan order. A query without tokens
// scans nothing.
func (s *Scanner) Scan(q match.Query) []registry.Record {
	m, ok := match.Compile(q)
	if !ok {
		return nil
	}

	candidates := s.Candidates()
	done := make(map[*html.Node]bool, len(candidates))
	var records []registry.Record

	for _, n := range candidates {
		// A candidate inside one already rewritten this pass was covered by it
		if !s.doc.Contains(n) || coveredBy(n, done) {
			continue
		}
		done[n] = true

		plain := dom.Text(n)
		spans, hit := m.Match(plain)
		if !hit {
			s.renderer.Restore(n)
			continue
		}
		s.renderer.Apply(n, match.Segments(plain, spans))
		records = append(records, registry.Record{Node: n, OriginalText: plain})
	}

	// An ancestor handled later in the pass may have detached earlier records
	// or stripped their marks while restoring itself
	live := records[:0]
	for _, rec := range records {
		if s.doc.Contains(rec.Node) && len(s.renderer.Marks(rec.Node)) > 0 {
			live = append(live, rec)
		}
	}

	slog.Debug("scan finished",
		"query", q.Text,
		"mode", q.Mode.String(),
		"candidates", len(candidates),
		"matches", len(live))
	return live
}

func coveredBy(n *html.Node, done map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if done[p] {
			return true
		}
	}
	return false
}
