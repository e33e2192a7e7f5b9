package events

import (
	"time"

	"github.com/smazurov/backendhost/internal/logging"
)

// Event type constants for kelindar/event.
const (
	TypeBackendStateChanged uint32 = iota + 1
	TypeBackendOutput
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// BackendStateChangedEvent is published on every supervisor state transition.
type BackendStateChangedEvent struct {
	PreviousState string `json:"previous_state" example:"running" doc:"State before the transition"`
	State         string `json:"state" example:"stopping" doc:"State after the transition"`
	RunID         string `json:"run_id,omitempty" example:"01JJ6Q7W3V5T9E2M8X4K0N1RZC" doc:"ULID of the backend run"`
	PID           int    `json:"pid,omitempty" example:"4242" doc:"Backend process ID"`
	ExitCode      int    `json:"exit_code" example:"-1" doc:"Exit code, -1 while running"`
	Signal        string `json:"signal,omitempty" example:"killed" doc:"Terminating signal"`
	Error         string `json:"error,omitempty" doc:"Last error, if any"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for BackendStateChangedEvent.
func (e BackendStateChangedEvent) Type() uint32 { return TypeBackendStateChanged }

// BackendOutputEvent carries a single line of backend output.
type BackendOutputEvent struct {
	Stream    string `json:"stream" example:"stdout" doc:"Output stream: stdout or stderr"`
	Source    string `json:"source" example:"Backend" doc:"Source label"`
	Line      string `json:"line" doc:"Output line without line ending"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Time the line was read"`
}

// Type returns the event type identifier for BackendOutputEvent.
func (e BackendOutputEvent) Type() uint32 { return TypeBackendOutput }

// LogEntryEvent represents a host log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"backend" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// NewLogEntryEvent converts a buffered log entry for publishing.
func NewLogEntryEvent(entry logging.LogEntry) LogEntryEvent {
	return LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}
