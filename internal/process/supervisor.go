package process

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Spec describes how to launch the backend.
type Spec struct {
	// Name is an executable name or path, see Resolve.
	Name string
	Args []string
	// Dir is the working directory; empty means the host's.
	Dir string
	// Env entries (KEY=VALUE) are appended to the host environment.
	Env []string
	// MaxLineBytes bounds a single output line, DefaultMaxLineBytes if zero.
	MaxLineBytes int
}

// StateChangeCallback is called after every state transition, outside
// the supervisor lock.
type StateChangeCallback func(oldState, newState State, info Info)

// Options configures a Supervisor.
type Options struct {
	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger *slog.Logger

	// OnStateChange is called on state transitions (optional).
	OnStateChange StateChangeCallback

	// OnKillSent is called after the kill signal was delivered (optional).
	OnKillSent func(pid int)
}

// Supervisor owns the lifetime of a single backend process.
//
// All access to the held child goes through mu: Start stores it, Stop
// takes it. The supervisor never holds more than one child.
type Supervisor struct {
	mu    sync.Mutex
	child *Child
	// last is the most recently started child, kept for observation after
	// Stop has released ownership.
	last    *Child
	state   State
	lastErr error
	exe     string

	logger        *slog.Logger
	onStateChange StateChangeCallback
	onKillSent    func(pid int)
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(opts *Options) *Supervisor {
	s := &Supervisor{state: StateIdle}
	if opts != nil {
		s.logger = opts.Logger
		s.onStateChange = opts.OnStateChange
		s.onKillSent = opts.OnKillSent
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

type transition struct {
	from, to State
	info     Info
}

// Start spawns the backend described by spec and returns its output
// events together with the child handle.
//
// It fails with ErrAlreadyRunning while a child is held, and with a
// *SpawnError (matching ErrSpawn) when the executable cannot be located
// or launched. No handle is stored on failure.
func (s *Supervisor) Start(ctx context.Context, spec Spec) (<-chan Event, *Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if s.child != nil {
		pid := s.child.PID()
		s.mu.Unlock()
		s.logger.Warn("Start refused, backend already held", "pid", pid)
		return nil, nil, ErrAlreadyRunning
	}

	var changes []transition
	changes = append(changes, s.setStateLocked(StateStarting, nil))
	s.exe = spec.Name

	path, err := Resolve(spec.Name)
	var child *Child
	var events <-chan Event
	if err == nil {
		s.exe = path
		child, events, err = spawn(path, spec)
	}
	if err != nil {
		spawnErr := &SpawnError{Executable: s.exe, Err: err}
		changes = append(changes, s.setStateLocked(StateError, spawnErr))
		s.mu.Unlock()
		s.notify(changes)
		s.logger.Error("Failed to start backend", "executable", spec.Name, "error", err)
		return nil, nil, spawnErr
	}

	s.child = child
	s.last = child
	changes = append(changes, s.setStateLocked(StateRunning, nil))
	s.mu.Unlock()

	s.notify(changes)
	s.logger.Info("Backend started", "pid", child.PID(), "run_id", child.RunID(), "executable", path, "args", spec.Args)

	go s.watch(child)
	return events, child, nil
}

// Stop takes the child out of the supervisor and sends it the kill signal.
// It does not wait for the process to exit. Stop returns whether a child
// was held; calling it again, or before Start, is a no-op.
func (s *Supervisor) Stop() bool {
	s.mu.Lock()
	child := s.child
	s.child = nil
	var changes []transition
	if child != nil && s.state == StateRunning {
		changes = append(changes, s.setStateLocked(StateStopping, nil))
	}
	s.mu.Unlock()

	if child == nil {
		s.logger.Debug("Stop requested with no backend held")
		return false
	}

	s.notify(changes)
	s.logger.Info("Stopping backend", "pid", child.PID())

	if err := child.Kill(); err != nil {
		var termErr *TerminationSignalError
		if errors.As(err, &termErr) && termErr.AlreadyExited() {
			s.logger.Debug("Backend already exited", "pid", child.PID())
		} else {
			s.logger.Warn("Failed to signal backend", "pid", child.PID(), "error", err)
		}
		return true
	}
	if s.onKillSent != nil {
		s.onKillSent(child.PID())
	}
	return true
}

// Wait blocks until the most recently started child has exited or ctx
// is done. It returns immediately if nothing was ever started.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	child := s.last
	s.mu.Unlock()

	if child == nil {
		return nil
	}
	select {
	case <-child.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasChild reports whether a child handle is held. The handle stays held
// after an unexpected exit until Stop releases it.
func (s *Supervisor) HasChild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.child != nil
}

// Status returns a snapshot of the supervised backend.
func (s *Supervisor) Status() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

// watch records the child's exit once it has been reaped.
func (s *Supervisor) watch(child *Child) {
	<-child.Done()

	s.mu.Lock()
	if s.last != child || (s.state != StateRunning && s.state != StateStopping) {
		s.mu.Unlock()
		return
	}
	change := s.setStateLocked(StateExited, nil)
	s.mu.Unlock()

	s.notify([]transition{change})

	if change.from == StateStopping {
		s.logger.Info("Backend stopped", "pid", child.PID(), "exit_code", child.exitCode)
	} else {
		s.logger.Warn("Backend exited", "pid", child.PID(), "exit_code", child.exitCode, "signal", child.signal)
	}
}

// setStateLocked must be called with mu held.
func (s *Supervisor) setStateLocked(state State, err error) transition {
	from := s.state
	s.state = state
	if err != nil {
		s.lastErr = err
	}
	return transition{from: from, to: state, info: s.infoLocked()}
}

// infoLocked must be called with mu held.
func (s *Supervisor) infoLocked() Info {
	info := Info{
		Executable: s.exe,
		State:      s.state,
		ExitCode:   -1,
		LastError:  s.lastErr,
	}
	if c := s.last; c != nil {
		info.PID = c.PID()
		info.RunID = c.RunID()
		info.StartedAt = c.StartedAt()
		if c.Exited() {
			info.ExitedAt = c.exitedAt
			info.ExitCode = c.exitCode
			info.Signal = c.signal
			if c.waitErr != nil && info.State == StateExited {
				info.LastError = c.waitErr
			}
		}
	}
	if s.state == StateError {
		info.PID = 0
		info.RunID = ""
		info.StartedAt = time.Time{}
	}
	return info
}

func (s *Supervisor) notify(changes []transition) {
	if s.onStateChange == nil {
		return
	}
	for _, c := range changes {
		s.onStateChange(c.from, c.to, c.info)
	}
}
