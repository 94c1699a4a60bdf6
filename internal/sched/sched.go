package sched

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a pending call that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It returns false if the timer had already
	// been stopped or a one-shot timer had already run.
	Stop() bool
}

// Scheduler runs tasks one at a time on a single logical thread.
// All document work happens inside tasks handed to a Scheduler.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
	Now() time.Time
}

// Loop is the production Scheduler: a goroutine draining a task queue.
// Once the queue is full, posts spill into an overflow list the loop drains
// after the queue, so Post never blocks. Tasks run in the order posted.
type Loop struct {
	tasks    chan func()
	wake     chan struct{}
	mu       sync.Mutex
	overflow []func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// NewLoop creates a loop with the given task buffer size.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	l.running.Store(true)
	defer close(l.done)
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		default:
		}

		select {
		case fn := <-l.tasks:
			l.exec(fn)
			continue
		default:
		}
		if fn := l.popOverflow(); fn != nil {
			l.exec(fn)
			continue
		}

		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.wake:
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) popOverflow() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.overflow) == 0 {
		return nil
	}
	fn := l.overflow[0]
	l.overflow[0] = nil
	l.overflow = l.overflow[1:]
	return fn
}


// Stop ends Run and waits for the current task to finish.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
	if l.running.Load() {
		<-l.done
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop task panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post queues fn without blocking. Tasks posted after Stop are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
		return
	default:
	}

	l.mu.Lock()
	// Anything behind the overflow must wait its turn there
	if len(l.overflow) == 0 {
		select {
		case l.tasks <- fn:
			l.mu.Unlock()
			return
		default:
		}
	}
	l.overflow = append(l.overflow, fn)
	n := len(l.overflow)
	l.mu.Unlock()

	if n == 1 {
		slog.Debug("loop queue full, spilling to overflow", "buffer", cap(l.tasks))
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Now returns wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// loopTimer re-checks its stopped flag on the loop, so a Stop issued after the
// wall-clock timer fired but before the task ran still wins.
type loopTimer struct {
	stopped atomic.Bool
	timer   *time.Timer
	ticker  *time.Ticker
	quit    chan struct{}
}

func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.quit)
	}
	return true
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Swap(true) {
				return
			}
			fn()
		})
	})
	return lt
}

// Every runs fn on the loop each time d elapses until stopped.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	lt := &loopTimer{ticker: time.NewTicker(d), quit: make(chan struct{})}
	go func() {
		for {
			select {
			case <-lt.ticker.C:
				l.Post(func() {
					if lt.stopped.Load() {
						return
					}
					fn()
				})
			case <-lt.quit:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return lt
}

// Call runs fn on the loop and waits for its result.
func Call[T any](ctx context.Context, s Scheduler, fn func() T) (T, error) {
	out := make(chan T, 1)
	s.Post(func() { out <- fn() })
	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
