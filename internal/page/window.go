package page

import (
	"log/slog"
	"net/url"

	"golang.org/x/net/html"

	"livefind/internal/dom"
	"livefind/internal/eventbus"
)

// History is the pair of entry points single-page apps use to change the
// URL without a reload.
type History interface {
	PushState(state any, title, rawURL string)
	ReplaceState(state any, title, rawURL string)
}

// ScrollRecord is one scrollIntoView request
type ScrollRecord struct {
	Node    *html.Node
	Options dom.ScrollOptions
}

// Window is the host page the engine lives in: one document, a location
// with session history, and a viewport. Methods must be called on the
// scheduler's loop, except Dispatch.
type Window struct {
	doc      *dom.Document
	bus      eventbus.EventBus
	location string
	entries  []string
	current  int
	history  History
	scrolls  []ScrollRecord
}

// NewWindow creates a window showing doc at location
func NewWindow(doc *dom.Document, location string, bus eventbus.EventBus) *Window {
	w := &Window{
		doc:      doc,
		bus:      bus,
		location: location,
		entries:  []string{location},
	}
	w.history = &sessionHistory{w: w}
	return w
}

// Document returns the page document
func (w *Window) Document() *dom.Document { return w.doc }

// Location returns the current URL
func (w *Window) Location() string { return w.location }

// History returns the history object page code should call. It may have
// been wrapped by an observer.
func (w *Window) History() History { return w.history }

// SetHistory installs a (usually wrapping) history implementation
func (w *Window) SetHistory(h History) { w.history = h }

// Back moves to the previous history entry and fires popstate
func (w *Window) Back() bool {
	if w.current == 0 {
		return false
	}
	w.current--
	w.location = w.entries[w.current]
	slog.Debug("history back", "location", w.location)
	w.bus.Publish(eventbus.PopStateEvent{Location: w.location})
	return true
}

// Forward moves to the next history entry and fires popstate
func (w *Window) Forward() bool {
	if w.current >= len(w.entries)-1 {
		return false
	}
	w.current++
	w.location = w.entries[w.current]
	w.bus.Publish(eventbus.PopStateEvent{Location: w.location})
	return true
}

// Scroll reports a user scroll to listeners
func (w *Window) Scroll() {
	w.bus.Publish(eventbus.ScrollEvent{})
}

// ScrollIntoView records a request to bring n into view
func (w *Window) ScrollIntoView(n *html.Node, opts dom.ScrollOptions) {
	w.scrolls = append(w.scrolls, ScrollRecord{Node: n, Options: opts})
}

// Scrolls returns every scrollIntoView request so far
func (w *Window) Scrolls() []ScrollRecord {
	out := make([]ScrollRecord, len(w.scrolls))
	copy(out, w.scrolls)
	return out
}

// LastScroll returns the most recent scrollIntoView request
func (w *Window) LastScroll() (ScrollRecord, bool) {
	if len(w.scrolls) == 0 {
		return ScrollRecord{}, false
	}
	return w.scrolls[len(w.scrolls)-1], true
}

// Dispatch fires an event into the page; safe from any goroutine
func (w *Window) Dispatch(e eventbus.DomainEvent) {
	w.bus.Publish(e)
}

func (w *Window) resolve(rawURL string) string {
	if rawURL == "" {
		return w.location
	}
	base, err := url.Parse(w.location)
	if err != nil {
		return rawURL
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return base.ResolveReference(ref).String()
}

// sessionHistory is the window's own history: it changes the location
// without firing anything, as browsers do.
type sessionHistory struct {
	w *Window
}

func (h *sessionHistory) PushState(_ any, _ string, rawURL string) {
	w := h.w
	loc := w.resolve(rawURL)
	w.entries = append(w.entries[:w.current+1], loc)
	w.current = len(w.entries) - 1
	w.location = loc
}

func (h *sessionHistory) ReplaceState(_ any, _ string, rawURL string) {
	w := h.w
	loc := w.resolve(rawURL)
	w.entries[w.current] = loc
	w.location = loc
}
