package watcher

import (
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"livefind/internal/dom"
	"livefind/internal/eventbus"
	"livefind/internal/sched"
)

// Options tunes when new content is considered worth a rescan
type Options struct {
	// Containers are likely comment roots to observe
	Containers []string
	// AnchoredContainers observe the closest div around each anchor match
	AnchoredContainers []string
	// CommentSelectors identify an inserted element as a comment
	CommentSelectors []string
	// TextElements are children that make long inserted text look like a comment
	TextElements []string
	// MinTextLength is the text length an insertion must exceed to qualify
	// through the text heuristic
	MinTextLength int
	// Debounce is how long insertions must stay quiet before a rescan
	Debounce time.Duration
	// ScrollDebounce is how long scrolling must stay quiet before counting
	ScrollDebounce time.Duration
}

// DefaultOptions follows what YouTube and Reddit comment feeds look like
func DefaultOptions() Options {
	return Options{
		Containers: []string{
			"#comments",
			"#contents",
			"#comments #continuations",
			".commentarea",
			".sitetable",
		},
		AnchoredContainers: []string{`[data-testid="comments-page-link-num-comments"]`},
		CommentSelectors: []string{
			"#content-text",
			`div[data-test-id="comment"]`,
			"ytd-comment-thread-renderer",
			"ytd-comment-view-model",
			".comment",
			`[data-testid="comment"]`,
			`div[id^="t1_"]`,
			".Comment",
		},
		TextElements:   []string{"p", "span"},
		MinTextLength:  20,
		Debounce:       800 * time.Millisecond,
		ScrollDebounce: time.Second,
	}
}

// Watcher decides when enough new content has appeared to rescan.
// All methods must be called on the scheduler's loop.
type Watcher struct {
	doc    *dom.Document
	sched  sched.Scheduler
	bus    eventbus.EventBus
	opts   Options
	count  func() int // candidate elements in the document
	known  func() int // records in the registry
	rescan func()

	running       bool
	disconnect    func()
	unsubscribe   func()
	debounceTimer sched.Timer
	scrollTimer   sched.Timer
}

// New creates a stopped watcher. count reports the current number of
// candidate elements, known the registry size, and rescan runs an
// incremental scan.
func New(doc *dom.Document, s sched.Scheduler, bus eventbus.EventBus, opts Options, count, known func() int, rescan func()) *Watcher {
	return &Watcher{
		doc:    doc,
		sched:  s,
		bus:    bus,
		opts:   opts,
		count:  count,
		known:  known,
		rescan: rescan,
	}
}

// Start begins observing containers and scroll signals
func (w *Watcher) Start() {
	if w.running {
		w.Stop()
	}
	w.running = true

	targets := w.targets()
	w.disconnect = w.doc.Observe(targets, w.onMutations)
	w.unsubscribe = w.bus.Subscribe(eventbus.EventScroll, func(eventbus.DomainEvent) { w.onScroll() })

	slog.Debug("watcher started", "targets", len(targets))
}

// Stop disconnects the observer and cancels pending timers
func (w *Watcher) Stop() {
	if !w.running {
		return
	}
	w.running = false
	if w.disconnect != nil {
		w.disconnect()
		w.disconnect = nil
	}
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	if w.scrollTimer != nil {
		w.scrollTimer.Stop()
		w.scrollTimer = nil
	}
	slog.Debug("watcher stopped")
}

// Running reports whether the watcher is observing
func (w *Watcher) Running() bool { return w.running }

func (w *Watcher) targets() []*html.Node {
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	add := func(n *html.Node) {
		if n != nil && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, sel := range w.opts.Containers {
		add(w.doc.QueryFirst(sel))
	}
	for _, sel := range w.opts.AnchoredContainers {
		if anchor := w.doc.QueryFirst(sel); anchor != nil {
			add(dom.Closest(anchor, "div"))
		}
	}
	add(w.doc.Body())
	return out
}

func (w *Watcher) onMutations(records []dom.MutationRecord) {
	if !w.running {
		return
	}
	for _, r := range records {
		for _, n := range r.Added {
			if w.qualifies(n) {
				w.armDebounce()
				return
			}
		}
	}
}

// qualifies reports whether an inserted node plausibly carries a comment
func (w *Watcher) qualifies(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, sel := range w.opts.CommentSelectors {
		if dom.Matches(n, sel) || dom.HasDescendant(n, sel) {
			return true
		}
	}
	if len(dom.Text(n)) <= w.opts.MinTextLength {
		return false
	}
	for _, sel := range w.opts.TextElements {
		if dom.HasDescendant(n, sel) {
			return true
		}
	}
	return false
}

func (w *Watcher) armDebounce() {
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = w.sched.AfterFunc(w.opts.Debounce, func() {
		w.debounceTimer = nil
		if !w.running {
			return
		}
		slog.Debug("new comments settled, rescanning")
		w.rescan()
	})
}

func (w *Watcher) onScroll() {
	if !w.running {
		return
	}
	if w.scrollTimer != nil {
		w.scrollTimer.Stop()
	}
	w.scrollTimer = w.sched.AfterFunc(w.opts.ScrollDebounce, func() {
		w.scrollTimer = nil
		if !w.running {
			return
		}
		if n := w.count(); n > w.known() {
			slog.Debug("scroll found unscanned candidates", "candidates", n, "known", w.known())
			w.rescan()
		}
	})
}
