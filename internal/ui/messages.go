package ui

import (
	"livefind/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// pagerMsg contains the result of a transcript pager command
type pagerMsg struct {
	err error
}
