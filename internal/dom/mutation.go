package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// MutationRecord describes one child-list change
type MutationRecord struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

type observer struct {
	targets []*html.Node
	fn      func([]MutationRecord)
}

// Observe watches child-list changes in the subtrees of targets. A record is
// delivered once per observer even when several targets contain it.
// The returned function disconnects the observer.
//
// Only changes made through Document mutation methods are observed; the
// engine's own markup rewrites go straight to the nodes.
func (d *Document) Observe(targets []*html.Node, fn func([]MutationRecord)) func() {
	o := &observer{fn: fn}
	for _, t := range targets {
		if t != nil {
			o.targets = append(o.targets, t)
		}
	}
	d.observers = append(d.observers, o)
	return func() {
		for i, x := range d.observers {
			if x == o {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

func (o *observer) covers(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		for _, t := range o.targets {
			if p == t {
				return true
			}
		}
	}
	return false
}

func (d *Document) notify(records ...MutationRecord) {
	observers := make([]*observer, len(d.observers))
	copy(observers, d.observers)
	for _, o := range observers {
		var batch []MutationRecord
		for _, r := range records {
			if o.covers(r.Target) {
				batch = append(batch, r)
			}
		}
		if len(batch) > 0 {
			o.fn(batch)
		}
	}
}

// AppendHTML parses fragment in the context of parent and appends the
// resulting nodes.
func (d *Document) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	if parent == nil {
		return nil, fmt.Errorf("append target is nil")
	}
	context := parent
	if context.Type != html.ElementNode {
		context = d.Body()
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	d.notify(MutationRecord{Target: parent, Added: nodes})
	return nodes, nil
}

// AppendNode appends a detached node to parent
func (d *Document) AppendNode(parent, child *html.Node) {
	parent.AppendChild(child)
	d.notify(MutationRecord{Target: parent, Added: []*html.Node{child}})
}

// RemoveNode detaches n from its parent
func (d *Document) RemoveNode(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n)
	d.notify(MutationRecord{Target: parent, Removed: []*html.Node{n}})
}

// ReplaceBody swaps the body content for fragment, as a single-page app does
// when it renders a new route.
func (d *Document) ReplaceBody(fragment string) error {
	body := d.Body()
	if body == nil {
		return fmt.Errorf("document has no body")
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	removed := RemoveChildren(body)
	for _, n := range nodes {
		body.AppendChild(n)
	}
	d.notify(MutationRecord{Target: body, Added: nodes, Removed: removed})
	return nil
}
