package registry

import (
	"golang.org/x/net/html"

	"livefind/internal/dom"
)

// Record is a matched candidate node with the plain text it had when scanned
type Record struct {
	Node         *html.Node
	OriginalText string
}

// Emphasizer toggles the focused-match style on a node's markers
type Emphasizer interface {
	SetActive(n *html.Node, active bool)
}

// Viewport brings a node into view
type Viewport interface {
	ScrollIntoView(n *html.Node, opts dom.ScrollOptions)
}

// FocusScroll is how the focused match is brought into view
var FocusScroll = dom.ScrollOptions{Behavior: "smooth", Block: "center"}

// Registry is the ordered list of matched nodes plus a navigation cursor.
// Indices handed out are never reassigned while the registry lives.
type Registry struct {
	records  []Record
	index    map[*html.Node]int
	cursor   int
	emphasis Emphasizer
	viewport Viewport
}

// New creates an empty registry
func New(e Emphasizer, v Viewport) *Registry {
	return &Registry{
		index:    make(map[*html.Node]int),
		cursor:   -1,
		emphasis: e,
		viewport: v,
	}
}

// Reset empties the registry
func (r *Registry) Reset() {
	r.records = nil
	r.index = make(map[*html.Node]int)
	r.cursor = -1
}

// SetAll replaces the sequence after a fresh scan
func (r *Registry) SetAll(records []Record) {
	r.Reset()
	for _, rec := range records {
		r.add(rec)
	}
	if len(r.records) > 0 {
		r.cursor = 0
	}
}

// AppendNew adds records for nodes not yet present and returns how many were
// added. Existing indices and the cursor are left alone, except that an empty
// cursor moves to 0 once something is registered.
func (r *Registry) AppendNew(records []Record) int {
	added := 0
	for _, rec := range records {
		if _, ok := r.index[rec.Node]; ok {
			continue
		}
		r.add(rec)
		added++
	}
	if r.cursor == -1 && len(r.records) > 0 {
		r.cursor = 0
	}
	return added
}

func (r *Registry) add(rec Record) {
	if _, ok := r.index[rec.Node]; ok {
		return
	}
	r.index[rec.Node] = len(r.records)
	r.records = append(r.records, rec)
}

// Next advances the cursor cyclically and returns it
func (r *Registry) Next() int {
	if len(r.records) == 0 {
		return r.cursor
	}
	r.cursor = (r.cursor + 1) % len(r.records)
	return r.cursor
}

// Prev moves the cursor back cyclically and returns it
func (r *Registry) Prev() int {
	if len(r.records) == 0 {
		return r.cursor
	}
	r.cursor = (r.cursor - 1 + len(r.records)) % len(r.records)
	return r.cursor
}

// Focus emphasizes the match at index and scrolls it into view
func (r *Registry) Focus(index int) bool {
	if !r.Emphasize(index) {
		return false
	}
	if r.viewport != nil {
		r.viewport.ScrollIntoView(r.records[index].Node, FocusScroll)
	}
	return true
}

// Emphasize moves the focused style to index without scrolling
func (r *Registry) Emphasize(index int) bool {
	if index < 0 || index >= len(r.records) {
		return false
	}
	if r.emphasis != nil {
		for _, rec := range r.records {
			r.emphasis.SetActive(rec.Node, false)
		}
		r.emphasis.SetActive(r.records[index].Node, true)
	}
	return true
}

// Len returns the number of records
func (r *Registry) Len() int { return len(r.records) }

// Cursor returns the active index or -1
func (r *Registry) Cursor() int { return r.cursor }

// At returns the record at index
func (r *Registry) At(index int) (Record, bool) {
	if index < 0 || index >= len(r.records) {
		return Record{}, false
	}
	return r.records[index], true
}

// Current returns the record under the cursor
func (r *Registry) Current() (Record, bool) {
	return r.At(r.cursor)
}

// IndexOf returns the index of node or -1
func (r *Registry) IndexOf(n *html.Node) int {
	if i, ok := r.index[n]; ok {
		return i
	}
	return -1
}

// Records returns a copy of the sequence
func (r *Registry) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
