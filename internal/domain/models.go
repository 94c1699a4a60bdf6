package domain

// Direction is the step requested by a jumpToMatch signal
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// ClearReason records why a session ended
type ClearReason string

const (
	ClearReplaced   ClearReason = "replaced"   // a search with a different query arrived
	ClearNavigation ClearReason = "navigation" // the page location changed
	ClearUnload     ClearReason = "unload"     // the page is going away
)

// Segment is one run of rendered comment text, marked or plain
type Segment struct {
	Text   string
	Marked bool
	Active bool // part of the focused match
}
