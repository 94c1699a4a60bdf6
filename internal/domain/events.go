package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	// Signals consumed by the engine
	EventCommentSearch EventType = "commentSearch"
	EventJumpToMatch   EventType = "jumpToMatch"
	EventBeforeUnload  EventType = "beforeunload"
	EventPopState      EventType = "popstate"
	EventScroll        EventType = "scroll"

	// Notifications produced by the engine
	EventSearchCompleted    EventType = "SearchCompleted"
	EventMatchFocused       EventType = "MatchFocused"
	EventSearchCleared      EventType = "SearchCleared"
	EventNavigationDetected EventType = "NavigationDetected"
	EventContentInserted    EventType = "ContentInserted"
	EventError              EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// CommentSearchEvent starts a new search session
type CommentSearchEvent struct {
	Query string
	Loose bool // all-words mode; false means exact phrase
}

func (e CommentSearchEvent) Type() EventType { return EventCommentSearch }

// JumpToMatchEvent moves the match cursor
type JumpToMatchEvent struct {
	Direction Direction
}

func (e JumpToMatchEvent) Type() EventType { return EventJumpToMatch }

// BeforeUnloadEvent tears everything down
type BeforeUnloadEvent struct{}

func (e BeforeUnloadEvent) Type() EventType { return EventBeforeUnload }

// PopStateEvent is emitted on back/forward navigation
type PopStateEvent struct {
	Location string
}

func (e PopStateEvent) Type() EventType { return EventPopState }

// ScrollEvent is emitted when the viewport scrolls
type ScrollEvent struct{}

func (e ScrollEvent) Type() EventType { return EventScroll }

// SearchCompletedEvent is emitted after every scan, full or incremental
type SearchCompletedEvent struct {
	SessionID   string
	Query       string
	Loose       bool
	Total       int
	Added       int
	Cursor      int // -1 when there is no active match
	Incremental bool
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// MatchFocusedEvent is emitted when a match becomes the active one
type MatchFocusedEvent struct {
	SessionID string
	Index     int
	Total     int
	Segments  []Segment
	Scrolled  bool
}

func (e MatchFocusedEvent) Type() EventType { return EventMatchFocused }

// SearchClearedEvent is emitted when a session ends
type SearchClearedEvent struct {
	SessionID    string
	Reason       ClearReason
	MarksRemoved int
}

func (e SearchClearedEvent) Type() EventType { return EventSearchCleared }

// NavigationDetectedEvent is emitted when the page location changes
type NavigationDetectedEvent struct {
	From string
	To   string
}

func (e NavigationDetectedEvent) Type() EventType { return EventNavigationDetected }

// ContentInsertedEvent is emitted when the feed appends new markup
type ContentInsertedEvent struct {
	Source string
	Nodes  int
}

func (e ContentInsertedEvent) Type() EventType { return EventContentInserted }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
