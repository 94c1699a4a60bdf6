package highlight

import (
	"golang.org/x/net/html"

	"livefind/internal/dom"
	"livefind/internal/domain"
)

// Style describes the marker elements the renderer creates
type Style struct {
	Tag         string
	Class       string
	Style       string
	ActiveStyle string // replaces Style on the focused match
}

// DefaultStyle is a yellow highlighter with a red outline for the focused match
func DefaultStyle() Style {
	base := "background-color: yellow; padding: 1px 2px; border-radius: 2px;"
	return Style{
		Tag:         "mark",
		Class:       "livefind-mark",
		Style:       base,
		ActiveStyle: base + " outline: 2px solid red;",
	}
}

// Renderer rewrites candidate nodes to show or hide match markers.
// Only elements carrying the renderer's tag and class are ever touched
// when stripping, so markup that belongs to the page survives.
type Renderer struct {
	style Style
}

// NewRenderer creates a renderer
func NewRenderer(style Style) *Renderer {
	if style.Tag == "" {
		style.Tag = "mark"
	}
	return &Renderer{style: style}
}

// Selector matches every marker the renderer creates
func (r *Renderer) Selector() string {
	if r.style.Class == "" {
		return r.style.Tag
	}
	return r.style.Tag + "." + r.style.Class
}

// Apply replaces n's content with segments. It is a no-op when n already
// renders exactly these segments.
func (r *Renderer) Apply(n *html.Node, segments []domain.Segment) {
	if r.flat(n) && sameText(r.Segments(n), segments) {
		return
	}

	dom.RemoveChildren(n)
	for _, seg := range segments {
		if !seg.Marked {
			n.AppendChild(dom.NewText(seg.Text))
			continue
		}
		m := r.newMark(seg.Active)
		m.AppendChild(dom.NewText(seg.Text))
		n.AppendChild(m)
	}
}

// Restore strips markers inside n and merges the freed text back into its
// neighbours. It reports whether anything changed.
func (r *Renderer) Restore(n *html.Node) bool {
	marks := r.Marks(n)
	for _, m := range marks {
		r.strip(m)
	}
	return len(marks) > 0
}

// Clear strips every marker in the document and returns how many were removed
func (r *Renderer) Clear(doc *dom.Document) int {
	marks := doc.QueryAll([]string{r.Selector()})
	for _, m := range marks {
		r.strip(m)
	}
	return len(marks)
}

// SetActive toggles the focused style on every marker inside n
func (r *Renderer) SetActive(n *html.Node, active bool) {
	style := r.style.Style
	if active {
		style = r.style.ActiveStyle
	}
	for _, m := range r.Marks(n) {
		dom.SetAttr(m, "style", style)
	}
}

// IsActive reports whether marker m carries the focused style
func (r *Renderer) IsActive(m *html.Node) bool {
	v, _ := dom.Attr(m, "style")
	return r.style.ActiveStyle != r.style.Style && v == r.style.ActiveStyle
}

// IsMark reports whether n is a marker created by this renderer
func (r *Renderer) IsMark(n *html.Node) bool {
	if !dom.IsElement(n, r.style.Tag) {
		return false
	}
	return r.style.Class == "" || dom.HasClass(n, r.style.Class)
}

// Marks returns the markers inside n in tree order
func (r *Renderer) Marks(n *html.Node) []*html.Node {
	var out []*html.Node
	for _, el := range dom.Elements(n) {
		if el != n && r.IsMark(el) {
			out = append(out, el)
		}
	}
	return out
}

// Segments reads back what n currently renders
func (r *Renderer) Segments(n *html.Node) []domain.Segment {
	var out []domain.Segment
	add := func(seg domain.Segment) {
		if seg.Text == "" {
			return
		}
		if k := len(out) - 1; k >= 0 && !seg.Marked && !out[k].Marked {
			out[k].Text += seg.Text
			return
		}
		out = append(out, seg)
	}

	var walk func(*html.Node)
	walk = func(x *html.Node) {
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				add(domain.Segment{Text: c.Data})
			case r.IsMark(c):
				add(domain.Segment{Text: dom.Text(c), Marked: true, Active: r.IsActive(c)})
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

func (r *Renderer) newMark(active bool) *html.Node {
	style := r.style.Style
	if active {
		style = r.style.ActiveStyle
	}
	var attrs []html.Attribute
	if r.style.Class != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: r.style.Class})
	}
	if style != "" {
		attrs = append(attrs, html.Attribute{Key: "style", Val: style})
	}
	return dom.NewElement(r.style.Tag, attrs...)
}

func (r *Renderer) strip(m *html.Node) {
	parent := m.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(dom.NewText(dom.Text(m)), m)
	parent.RemoveChild(m)
	dom.Normalize(parent)
}

// flat reports whether n holds only text and markers
func (r *Renderer) flat(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode && !r.IsMark(c) {
			return false
		}
	}
	return true
}

func sameText(a, b []domain.Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].Marked != b[i].Marked {
			return false
		}
	}
	return true
}
