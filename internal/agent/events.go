// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// EventType is the closed set of progress notifications the research loop
// emits.
type EventType string

const (
	EventStatus      EventType = "status"
	EventSubQuery    EventType = "sub_query"
	EventSourceFound EventType = "source_found"
	EventIteration   EventType = "iteration"
	EventSynthesis   EventType = "synthesis"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// Event is a point-in-time progress notification. Events are observed,
// never required for correctness: a sink may drop or delay them without
// affecting the research outcome.
type Event struct {
	Type      EventType `json:"event_type"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp float64   `json:"timestamp"`
}

// Typed event payloads. Each event type that carries data has its own
// struct rather than a free-form map.

// IterationData accompanies an iteration event.
type IterationData struct {
	Iteration     int `json:"iteration"`
	MaxIterations int `json:"max_iterations"`
}

// SubQueryData accompanies a sub_query event.
type SubQueryData struct {
	Query string `json:"query"`
}

// SourceFoundData accompanies a source_found event.
type SourceFoundData struct {
	URL              string           `json:"url"`
	SourceType       types.SourceType `json:"source_type"`
	CredibilityScore float64          `json:"credibility_score"`
	Domain           string           `json:"domain"`
}

// CompletenessData accompanies the status event reporting an evaluation.
type CompletenessData struct {
	CompletenessScore float64 `json:"completeness_score"`
}

// CompleteData accompanies the complete event.
type CompleteData struct {
	TotalSources   int `json:"total_sources"`
	Iterations     int `json:"iterations"`
	Contradictions int `json:"contradictions"`
}

// EventSink receives research events. Emit errors are swallowed by the
// orchestrator: a disconnected sink never aborts the research loop.
type EventSink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event) error

// Emit calls the wrapped function.
func (f SinkFunc) Emit(ev Event) error { return f(ev) }

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, message string, data any) Event {
	return Event{
		Type:      t,
		Message:   message,
		Data:      data,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	}
}
