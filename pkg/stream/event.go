package stream

import "strings"

// EventType identifies the kind of a streamed event.
type EventType string

const (
	EventToken         EventType = "token"
	EventToolCallStart EventType = "tool_call_start"
	EventToolCallEnd   EventType = "tool_call_end"
	EventDone          EventType = "done"
)

// DefaultSuccessMarker is the substring a tool result carries when the tool
// reports a user-visible change.
const DefaultSuccessMarker = "✅"

// Event is one decoded `data:` line of the event stream.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Tool    string    `json:"tool,omitempty"`
	Result  string    `json:"result,omitempty"`
}

// Known reports whether the event type is one the reducer understands.
func (e Event) Known() bool {
	switch e.Type {
	case EventToken, EventToolCallStart, EventToolCallEnd, EventDone:
		return true
	}
	return false
}

// IsSuccessResult reports whether a tool_call_end event carries marker in its
// result. An empty marker never matches.
func (e Event) IsSuccessResult(marker string) bool {
	if e.Type != EventToolCallEnd || marker == "" {
		return false
	}
	return strings.Contains(e.Result, marker)
}
