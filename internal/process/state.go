package process

import "time"

// State is the lifecycle state of the supervised backend.
type State string

// Backend states.
const (
	StateIdle     State = "idle"     // never started
	StateStarting State = "starting" // being spawned
	StateRunning  State = "running"  // process alive
	StateStopping State = "stopping" // kill signal sent, exit not yet observed
	StateExited   State = "exited"   // process gone
	StateError    State = "error"    // spawn failed
)

// Info is a point-in-time view of the supervised backend.
type Info struct {
	Executable string
	State      State
	RunID      string
	PID        int
	StartedAt  time.Time
	ExitedAt   time.Time
	ExitCode   int
	Signal     string
	LastError  error
}
