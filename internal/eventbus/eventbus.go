package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"livefind/internal/domain"
	"livefind/internal/sched"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventCommentSearch      = domain.EventCommentSearch
	EventJumpToMatch        = domain.EventJumpToMatch
	EventBeforeUnload       = domain.EventBeforeUnload
	EventPopState           = domain.EventPopState
	EventScroll             = domain.EventScroll
	EventSearchCompleted    = domain.EventSearchCompleted
	EventMatchFocused       = domain.EventMatchFocused
	EventSearchCleared      = domain.EventSearchCleared
	EventNavigationDetected = domain.EventNavigationDetected
	EventContentInserted    = domain.EventContentInserted
	EventError              = domain.EventError
)

// Re-export domain event types
type CommentSearchEvent = domain.CommentSearchEvent
type JumpToMatchEvent = domain.JumpToMatchEvent
type BeforeUnloadEvent = domain.BeforeUnloadEvent
type PopStateEvent = domain.PopStateEvent
type ScrollEvent = domain.ScrollEvent
type SearchCompletedEvent = domain.SearchCompletedEvent
type MatchFocusedEvent = domain.MatchFocusedEvent
type SearchClearedEvent = domain.SearchClearedEvent
type NavigationDetectedEvent = domain.NavigationDetectedEvent
type ContentInsertedEvent = domain.ContentInsertedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus delivers every event as one task on the scheduler, so handlers never
// run concurrently with each other or with document work.
type bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64
	sched    sched.Scheduler
}

// New creates a new event bus delivering on s
func New(s sched.Scheduler) EventBus {
	return &bus{
		handlers: make(map[EventType][]subscription),
		sched:    s,
	}
}

// Publish queues an event for delivery; safe from any goroutine
func (b *bus) Publish(event DomainEvent) {
	// Skip logging for high-frequency events
	switch event.Type() {
	case EventScroll:
	default:
		slog.Debug("eventbus: publishing", "event", event.Type())
	}

	b.sched.Post(func() { b.deliver(event) })
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

func (b *bus) deliver(event DomainEvent) {
	// Copy so handlers may unsubscribe while being called
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s.handler, event)
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panic", "event", event.Type(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(event)
}
