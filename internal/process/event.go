package process

// EventKind tags an output Event.
type EventKind uint8

// Event kinds.
const (
	EventStdout     EventKind = iota + 1 // a line written to stdout
	EventStderr                          // a line written to stderr
	EventTerminated                      // the child exited; always the last event
	EventError                           // an unreadable chunk of output (Err is a *StreamReadError)
)

func (k EventKind) String() string {
	switch k {
	case EventStdout:
		return "stdout"
	case EventStderr:
		return "stderr"
	case EventTerminated:
		return "terminated"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single item of the child's output stream.
type Event struct {
	Kind EventKind
	// Line is set for EventStdout and EventStderr, without the line ending.
	Line string
	// ExitCode is set for EventTerminated. A child killed by a signal
	// reports 128 plus the signal number.
	ExitCode int
	// Signal names the terminating signal, if any.
	Signal string
	// Err is set for EventError.
	Err error
}
