package process

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSpawn marks failures to locate or launch the backend executable.
	ErrSpawn = errors.New("backend spawn failed")

	// ErrAlreadyRunning is returned by Start while a child is held.
	ErrAlreadyRunning = errors.New("backend already running")

	// ErrStreamRead marks output that could not be turned into a line.
	ErrStreamRead = errors.New("backend output unreadable")

	// ErrLineTooLong is the cause of a StreamReadError for oversized lines.
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrInvalidUTF8 is the cause of a StreamReadError for non UTF-8 lines.
	ErrInvalidUTF8 = errors.New("line is not valid UTF-8")
)

// SpawnError reports that the backend could not be started.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// StreamReadError reports a chunk of output that was skipped.
type StreamReadError struct {
	Stream string
	Err    error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Stream, e.Err)
}

func (e *StreamReadError) Unwrap() []error { return []error{ErrStreamRead, e.Err} }

// TerminationSignalError reports that the kill signal could not be delivered.
type TerminationSignalError struct {
	PID int
	Err error
}

func (e *TerminationSignalError) Error() string {
	return fmt.Sprintf("kill pid %d: %v", e.PID, e.Err)
}

func (e *TerminationSignalError) Unwrap() error { return e.Err }

// AlreadyExited reports whether the signal failed only because the process
// was already gone, which leaves the desired end state in place.
func (e *TerminationSignalError) AlreadyExited() bool {
	return errors.Is(e.Err, os.ErrProcessDone)
}
