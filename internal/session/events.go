package session

import (
	"time"

	"github.com/sells-group/enrich-cli/internal/model"
)

// EventType names a session lifecycle event.
type EventType string

const (
	// EventSession opens the stream: session accepted, rows counted.
	EventSession EventType = "session"
	// EventRowPending announces a row queued for processing.
	EventRowPending EventType = "pending"
	// EventRowProcessing announces a row entering a worker slot.
	EventRowProcessing EventType = "processing"
	// EventRowResult carries one terminal row outcome.
	EventRowResult EventType = "result"
	// EventAgentProgress reports long-running work inside a row.
	EventAgentProgress EventType = "agent_progress"
	// EventComplete terminates the stream: all rows settled.
	EventComplete EventType = "complete"
	// EventCancelled terminates the stream: session cancelled.
	EventCancelled EventType = "cancelled"
	// EventError terminates the stream: the session itself failed.
	EventError EventType = "error"
)

// Terminal reports whether the event ends the session stream.
func (t EventType) Terminal() bool {
	switch t {
	case EventComplete, EventCancelled, EventError:
		return true
	default:
		return false
	}
}

// Event is one entry on the ordered session stream.
type Event struct {
	Type      EventType                  `json:"type"`
	SessionID string                     `json:"sessionId"`
	RowIndex  *int                       `json:"rowIndex,omitempty"`
	TotalRows int                        `json:"totalRows,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Result    *model.RowEnrichmentResult `json:"result,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

func rowIndex(i int) *int { return &i }
