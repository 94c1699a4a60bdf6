// Package dom wraps an x/net/html tree with the small slice of browser
// document behaviour the search engine relies on: selector queries, text
// content, normalisation and child-list mutation observation.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ScrollOptions mirror the scrollIntoView dictionary
type ScrollOptions struct {
	Behavior string // "smooth" or "auto"
	Block    string // "start", "center", "end" or "nearest"
}

// Document is a mutable HTML tree with mutation observers.
// It is not safe for concurrent use; callers serialise access through
// a sched.Scheduler.
type Document struct {
	root      *html.Node
	observers []*observer
}

// Parse reads a full HTML document
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for in-memory markup
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FromGoquery adopts the tree behind a goquery document
func FromGoquery(doc *goquery.Document) *Document {
	return &Document{root: doc.Nodes[0]}
}

// Root returns the document node
func (d *Document) Root() *html.Node { return d.root }

func (d *Document) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(d.root).Selection
}

// Body returns the body element, or nil for a fragment-only tree
func (d *Document) Body() *html.Node {
	return d.QueryFirst("body")
}

// QueryAll returns every element matching any selector: selector-list order
// first, then document order within a selector. Each node appears once.
// Selectors that fail to compile match nothing.
func (d *Document) QueryAll(selectors []string) []*html.Node {
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, sel := range selectors {
		d.selection().Find(sel).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		})
	}
	return out
}

// QueryFirst returns the first element matching selector, or nil
func (d *Document) QueryFirst(selector string) *html.Node {
	s := d.selection().Find(selector)
	if s.Length() == 0 {
		return nil
	}
	return s.Get(0)
}

// Count is the number of distinct elements matched by selectors
func (d *Document) Count(selectors []string) int {
	return len(d.QueryAll(selectors))
}

// Contains reports whether n is still attached to this document
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// HTML renders the whole document
func (d *Document) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

// Matches reports whether element n matches selector
func Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return goquery.NewDocumentFromNode(n).Is(selector)
}

// HasDescendant reports whether any descendant of n matches selector
func HasDescendant(n *html.Node, selector string) bool {
	if n == nil {
		return false
	}
	return goquery.NewDocumentFromNode(n).Find(selector).Length() > 0
}

// Closest returns n or its nearest ancestor matching selector
func Closest(n *html.Node, selector string) *html.Node {
	if n == nil {
		return nil
	}
	s := goquery.NewDocumentFromNode(n).Closest(selector)
	if s.Length() == 0 {
		return nil
	}
	return s.Get(0)
}

// Text returns the concatenated text content of n
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	return goquery.NewDocumentFromNode(n).Text()
}

// IsElement reports whether n is an element with the given tag
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Attr returns an attribute value
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries class c
func HasClass(n *html.Node, c string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, f := range strings.Fields(v) {
		if f == c {
			return true
		}
	}
	return false
}

// NewText creates a detached text node
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// NewElement creates a detached element
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// RemoveChildren detaches every child of n
func RemoveChildren(n *html.Node) []*html.Node {
	var removed []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	return removed
}

// Normalize merges adjacent text children of n and drops empty ones
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			c = next
			continue
		}
		for next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			after := next.NextSibling
			n.RemoveChild(next)
			next = after
		}
		if c.Data == "" {
			n.RemoveChild(c)
		}
		c = next
	}
}

// Elements returns n followed by its element descendants in tree order
func Elements(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode {
			out = append(out, x)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
