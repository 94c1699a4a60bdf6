// Package engine keeps one search session alive against a changing page:
// it scans, highlights, follows new comments and resets on navigation.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"livefind/internal/domain"
	"livefind/internal/eventbus"
	"livefind/internal/highlight"
	"livefind/internal/match"
	"livefind/internal/navigation"
	"livefind/internal/page"
	"livefind/internal/registry"
	"livefind/internal/scanner"
	"livefind/internal/sched"
	"livefind/internal/watcher"
)

// Options configures an engine
type Options struct {
	Candidates   []string
	Watcher      watcher.Options
	PollInterval time.Duration
	HistoryDelay time.Duration
	Style        highlight.Style
}

// DefaultCandidates are the comment text selectors for the feeds we know
var DefaultCandidates = []string{
	"#content-text",
	`div[data-test-id="comment"]`,
	"ytd-comment-view-model #content-text",
	"yt-attributed-string span",
	".comment-text",
	`[data-testid="comment"] p`,
	`div[id^="t1_"] .usertext-body`,
	".Comment p",
	".usertext .md p",
}

// DefaultOptions returns the stock selectors and timings
func DefaultOptions() Options {
	return Options{
		Candidates:   DefaultCandidates,
		Watcher:      watcher.DefaultOptions(),
		PollInterval: time.Second,
		HistoryDelay: 100 * time.Millisecond,
		Style:        highlight.DefaultStyle(),
	}
}

// Session is one active query
type Session struct {
	ID       string
	Query    match.Query
	Registry *registry.Registry
	Watcher  *watcher.Watcher
	Started  time.Time
}

// Line is one candidate in a transcript. Match is the registry index or -1.
type Line struct {
	Match    int
	Active   bool
	Segments []domain.Segment
}

// Engine owns the search state of a window. Everything except Transcript
// runs on the scheduler's loop, driven by bus events.
type Engine struct {
	win      *page.Window
	sched    sched.Scheduler
	bus      eventbus.EventBus
	opts     Options
	renderer *highlight.Renderer
	scanner  *scanner.Scanner
	detector *navigation.Detector

	session *Session
	unsubs  []func()
}

// New wires an engine to win; call Start to begin handling events
func New(win *page.Window, s sched.Scheduler, bus eventbus.EventBus, opts Options) *Engine {
	e := &Engine{
		win:      win,
		sched:    s,
		bus:      bus,
		opts:     opts,
		renderer: highlight.NewRenderer(opts.Style),
	}
	e.scanner = scanner.New(win.Document(), e.renderer, opts.Candidates)
	e.detector = navigation.New(win, s, bus, opts.PollInterval, opts.HistoryDelay, e.onNavigate)
	return e
}

// Start subscribes to page events and begins navigation tracking
func (e *Engine) Start() {
	e.win.SetHistory(e.detector.WrapHistory(e.win.History()))
	e.detector.Start()

	e.unsubs = append(e.unsubs,
		e.bus.Subscribe(eventbus.EventCommentSearch, func(ev eventbus.DomainEvent) {
			se := ev.(eventbus.CommentSearchEvent)
			e.Search(se.Query, se.Loose)
		}),
		e.bus.Subscribe(eventbus.EventJumpToMatch, func(ev eventbus.DomainEvent) {
			e.Jump(ev.(eventbus.JumpToMatchEvent).Direction)
		}),
		e.bus.Subscribe(eventbus.EventBeforeUnload, func(eventbus.DomainEvent) {
			e.Unload()
		}),
	)
	slog.Info("engine started", "location", e.win.Location(), "candidates", e.scanner.CandidateCount())
}

// Stop unsubscribes from page events. The session is left as is.
func (e *Engine) Stop() {
	for _, u := range e.unsubs {
		u()
	}
	e.unsubs = nil
	e.detector.Stop()
}

// Session returns the active session or nil
func (e *Engine) Session() *Session { return e.session }

// Renderer returns the marker renderer
func (e *Engine) Renderer() *highlight.Renderer { return e.renderer }

// Search starts a session for query, replacing the active one
func (e *Engine) Search(query string, loose bool) {
	e.detector.Check()

	if e.session != nil && e.session.Query.Text != query {
		e.Clear(domain.ClearReplaced)
	}

	q := match.Query{Text: query, Mode: match.ModeFromLoose(loose)}
	if len(match.Tokenize(query)) == 0 {
		slog.Debug("ignoring empty query")
		return
	}

	reg := registry.New(e.renderer, e.win)
	if prev := e.session; prev != nil {
		prev.Watcher.Stop()
	}
	sess := &Session{
		ID:       uuid.NewString(),
		Query:    q,
		Registry: reg,
		Started:  e.sched.Now(),
	}
	e.session = sess

	reg.SetAll(e.scanner.Scan(q))
	focused := reg.Focus(0)

	sess.Watcher = watcher.New(e.win.Document(), e.sched, e.bus, e.opts.Watcher,
		e.scanner.CandidateCount, reg.Len, func() {
			if e.session == sess {
				e.rescan()
			}
		})
	sess.Watcher.Start()

	slog.Info("search completed", "session", sess.ID, "query", query, "mode", q.Mode, "matches", reg.Len())
	e.bus.Publish(eventbus.SearchCompletedEvent{
		SessionID: sess.ID,
		Query:     query,
		Loose:     loose,
		Total:     reg.Len(),
		Added:     reg.Len(),
		Cursor:    reg.Cursor(),
	})
	if focused {
		e.publishFocus(true)
	}
}

// rescan grows the registry with newly matching nodes without moving the
// cursor or the viewport.
func (e *Engine) rescan() {
	sess := e.session
	reg := sess.Registry
	before := reg.Cursor()
	added := reg.AppendNew(e.scanner.Scan(sess.Query))
	if reg.Cursor() >= 0 {
		reg.Emphasize(reg.Cursor())
	}

	if added == 0 {
		slog.Debug("rescan found nothing new", "session", sess.ID)
		return
	}
	slog.Info("rescan found new matches", "session", sess.ID, "added", added, "total", reg.Len())
	e.bus.Publish(eventbus.SearchCompletedEvent{
		SessionID:   sess.ID,
		Query:       sess.Query.Text,
		Loose:       sess.Query.Mode == match.AllWords,
		Total:       reg.Len(),
		Added:       added,
		Cursor:      reg.Cursor(),
		Incremental: true,
	})
	if before == -1 && reg.Cursor() >= 0 {
		e.publishFocus(false)
	}
}

// Jump moves the cursor cyclically and brings the match into view
func (e *Engine) Jump(dir domain.Direction) {
	if e.session == nil || e.session.Registry.Len() == 0 {
		return
	}
	reg := e.session.Registry
	switch dir {
	case domain.DirectionNext:
		reg.Next()
	case domain.DirectionPrev:
		reg.Prev()
	default:
		slog.Warn("unknown jump direction", "direction", dir)
		return
	}
	reg.Focus(reg.Cursor())
	e.publishFocus(true)
}

// Clear tears down the session and strips every marker from the page
func (e *Engine) Clear(reason domain.ClearReason) {
	sess := e.session
	e.session = nil
	if sess != nil {
		sess.Watcher.Stop()
		sess.Registry.Reset()
	}
	removed := e.renderer.Clear(e.win.Document())
	if sess == nil && removed == 0 {
		return
	}

	ev := eventbus.SearchClearedEvent{Reason: reason, MarksRemoved: removed}
	if sess != nil {
		ev.SessionID = sess.ID
	}
	slog.Info("search cleared", "reason", reason, "marks", removed)
	e.bus.Publish(ev)
}

// Unload stops navigation tracking and clears the session
func (e *Engine) Unload() {
	e.detector.Stop()
	e.Clear(domain.ClearUnload)
}

func (e *Engine) onNavigate(_, _ string) {
	e.Clear(domain.ClearNavigation)
}

func (e *Engine) publishFocus(scrolled bool) {
	reg := e.session.Registry
	rec, ok := reg.Current()
	if !ok {
		return
	}
	e.bus.Publish(eventbus.MatchFocusedEvent{
		SessionID: e.session.ID,
		Index:     reg.Cursor(),
		Total:     reg.Len(),
		Segments:  e.renderer.Segments(rec.Node),
		Scrolled:  scrolled,
	})
}

// Transcript returns every candidate on the page with its markers. It may
// be called from any goroutine.
func (e *Engine) Transcript(ctx context.Context) ([]Line, error) {
	return sched.Call(ctx, e.sched, func() []Line {
		var lines []Line
		for _, n := range e.scanner.Candidates() {
			l := Line{Match: -1, Segments: e.renderer.Segments(n)}
			if e.session != nil {
				l.Match = e.session.Registry.IndexOf(n)
				l.Active = l.Match >= 0 && l.Match == e.session.Registry.Cursor()
			}
			lines = append(lines, l)
		}
		return lines
	})
}
