// Package feed drives a page from a directory: dropping files into it
// appends comments, navigates or scrolls, the way a live comment feed
// would.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"livefind/internal/eventbus"
	"livefind/internal/page"
	"livefind/internal/sched"
)

// Kind is what a dropped file asks the page to do
type Kind int

const (
	KindUnknown Kind = iota
	KindHTML         // append the markup as new content
	KindURL          // push the URL onto the session history
	KindBack         // go back one history entry
	KindScroll       // report a user scroll
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindURL:
		return "url"
	case KindBack:
		return "back"
	case KindScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// KindOf classifies a file by extension
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return KindHTML
	case ".url":
		return KindURL
	case ".back":
		return KindBack
	case ".scroll":
		return KindScroll
	default:
		return KindUnknown
	}
}

// Options configures a feeder
type Options struct {
	// Targets are tried in order for where new markup goes; body otherwise
	Targets []string
	// Settle is how long a file must stay unchanged before it is read
	Settle time.Duration
}

// Feeder watches a directory and applies dropped files to a window
type Feeder struct {
	dir   string
	win   *page.Window
	sched sched.Scheduler
	bus   eventbus.EventBus
	opts  Options

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	// loop-owned
	pending  map[string]sched.Timer
	inserted map[string]bool
}

// New creates a feeder for dir
func New(dir string, win *page.Window, s sched.Scheduler, bus eventbus.EventBus, opts Options) (*Feeder, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("feed path is not a directory: %s", dir)
	}
	return &Feeder{
		dir:      dir,
		win:      win,
		sched:    s,
		bus:      bus,
		opts:     opts,
		done:     make(chan struct{}),
		pending:  make(map[string]sched.Timer),
		inserted: make(map[string]bool),
	}, nil
}

// Start begins watching the directory until ctx ends or Stop is called
func (f *Feeder) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}
	f.watcher = w
	go f.processEvents(ctx)

	slog.Info("feed started", "dir", f.dir)
	return nil
}

// Stop stops watching
func (f *Feeder) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
		if f.watcher != nil {
			f.watcher.Close()
		}
	})
}

func (f *Feeder) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if KindOf(path) == KindUnknown {
				continue
			}
			f.sched.Post(func() { f.Touch(path) })
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("feed watcher error", "error", err)
		}
	}
}

// Touch records activity on path and (re)arms its settle timer. It must be
// called on the scheduler's loop.
func (f *Feeder) Touch(path string) {
	if t, ok := f.pending[path]; ok {
		t.Stop()
	}
	f.pending[path] = f.sched.AfterFunc(f.opts.Settle, func() {
		delete(f.pending, path)
		f.apply(path)
	})
}

func (f *Feeder) apply(path string) {
	kind := KindOf(path)
	if kind == KindHTML && f.inserted[path] {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read feed file", "path", path, "error", err)
		f.bus.Publish(eventbus.ErrorEvent{Message: "failed to read feed file", Err: err})
		return
	}
	slog.Debug("applying feed file", "path", path, "kind", kind)

	switch kind {
	case KindHTML:
		f.inserted[path] = true
		f.insert(filepath.Base(path), string(data))
	case KindURL:
		if u := firstLine(data); u != "" {
			f.win.History().PushState(nil, "", u)
		}
	case KindBack:
		f.win.Back()
	case KindScroll:
		f.win.Scroll()
	}
}

func (f *Feeder) insert(source, fragment string) {
	doc := f.win.Document()
	target := doc.Body()
	for _, sel := range f.opts.Targets {
		if n := doc.QueryFirst(sel); n != nil {
			target = n
			break
		}
	}

	nodes, err := doc.AppendHTML(target, fragment)
	if err != nil {
		slog.Warn("failed to insert feed content", "source", source, "error", err)
		f.bus.Publish(eventbus.ErrorEvent{Message: "failed to insert feed content", Err: err})
		return
	}
	f.bus.Publish(eventbus.ContentInsertedEvent{Source: source, Nodes: len(nodes)})
}

func firstLine(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
