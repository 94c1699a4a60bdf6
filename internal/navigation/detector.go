package navigation

import (
	"log/slog"
	"time"

	"livefind/internal/eventbus"
	"livefind/internal/page"
	"livefind/internal/sched"
)

// Locator reports the current document location
type Locator interface {
	Location() string
}

// Detector notices when the page swaps its document without a reload.
// All methods must be called on the scheduler's loop.
type Detector struct {
	loc        Locator
	sched      sched.Scheduler
	bus        eventbus.EventBus
	interval   time.Duration
	delay      time.Duration
	onNavigate func(from, to string)

	last        string
	running     bool
	poll        sched.Timer
	pending     map[int]sched.Timer
	nextPending int
	unsubscribe func()
}

// New creates a stopped detector. interval is the polling cadence, delay
// how long after a history call the location is checked. onNavigate runs
// after the last known location has been updated.
func New(loc Locator, s sched.Scheduler, bus eventbus.EventBus, interval, delay time.Duration, onNavigate func(from, to string)) *Detector {
	return &Detector{
		loc:        loc,
		sched:      s,
		bus:        bus,
		interval:   interval,
		delay:      delay,
		onNavigate: onNavigate,
		pending:    make(map[int]sched.Timer),
	}
}

// Start records the current location and begins polling
func (d *Detector) Start() {
	if d.running {
		return
	}
	d.running = true
	d.last = d.loc.Location()
	d.poll = d.sched.Every(d.interval, func() { d.Check() })
	d.unsubscribe = d.bus.Subscribe(eventbus.EventPopState, func(eventbus.DomainEvent) { d.Check() })
	slog.Debug("navigation detector started", "location", d.last)
}

// Stop cancels polling and any scheduled checks
func (d *Detector) Stop() {
	if !d.running {
		return
	}
	d.running = false
	if d.poll != nil {
		d.poll.Stop()
		d.poll = nil
	}
	for id, t := range d.pending {
		t.Stop()
		delete(d.pending, id)
	}
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
}

// Running reports whether the detector is active
func (d *Detector) Running() bool { return d.running }

// Last returns the last observed location
func (d *Detector) Last() string { return d.last }

// Check compares the location with the last one seen and reports whether
// a navigation happened.
func (d *Detector) Check() bool {
	current := d.loc.Location()
	if current == d.last {
		return false
	}
	from := d.last
	d.last = current
	slog.Info("navigation detected", "from", from, "to", current)

	d.bus.Publish(eventbus.NavigationDetectedEvent{From: from, To: current})
	if d.onNavigate != nil {
		d.onNavigate(from, current)
	}
	return true
}

func (d *Detector) scheduleCheck() {
	if !d.running {
		return
	}
	id := d.nextPending
	d.nextPending++
	d.pending[id] = d.sched.AfterFunc(d.delay, func() {
		delete(d.pending, id)
		d.Check()
	})
}

// WrapHistory returns a history that behaves like h and additionally
// schedules a location check after every state change.
func (d *Detector) WrapHistory(h page.History) page.History {
	return &watchedHistory{inner: h, d: d}
}

type watchedHistory struct {
	inner page.History
	d     *Detector
}

func (h *watchedHistory) PushState(state any, title, rawURL string) {
	h.inner.PushState(state, title, rawURL)
	h.d.scheduleCheck()
}

func (h *watchedHistory) ReplaceState(state any, title, rawURL string) {
	h.inner.ReplaceState(state, title, rawURL)
	h.d.scheduleCheck()
}
