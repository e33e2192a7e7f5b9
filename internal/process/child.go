package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxLineBytes bounds a single output line.
	DefaultMaxLineBytes = 1 << 20

	// PipeDrainDelay bounds how long output is still read after the
	// process has been reaped.
	PipeDrainDelay = 500 * time.Millisecond

	eventBufferSize = 256
	readBufferSize  = 64 << 10
)

// Child is the handle of a spawned backend process.
type Child struct {
	cmd       *exec.Cmd
	path      string
	pid       int
	runID     string
	startedAt time.Time
	group     *processGroup
	done      chan struct{}

	// Written once before done is closed.
	exitedAt time.Time
	exitCode int
	signal   string
	waitErr  error
}

// PID returns the operating system process ID.
func (c *Child) PID() int { return c.pid }

// RunID identifies this spawn. IDs sort by spawn time.
func (c *Child) RunID() string { return c.runID }

// Path returns the resolved executable path.
func (c *Child) Path() string { return c.path }

// StartedAt returns the spawn time.
func (c *Child) StartedAt() time.Time { return c.startedAt }

// Done is closed once the process has exited and been reaped.
func (c *Child) Done() <-chan struct{} { return c.done }

// Exited reports whether the process has been reaped.
func (c *Child) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code, or -1 while the process is running.
func (c *Child) ExitCode() int {
	if !c.Exited() {
		return -1
	}
	return c.exitCode
}

// Kill sends the kill signal to the child and its process group.
// It does not wait for the process to exit.
func (c *Child) Kill() error {
	if c.Exited() {
		return &TerminationSignalError{PID: c.pid, Err: os.ErrProcessDone}
	}
	if err := c.group.kill(); err != nil {
		return &TerminationSignalError{PID: c.pid, Err: err}
	}
	return nil
}

// spawn starts the executable at path and wires its output into an event
// channel. The channel is closed after the EventTerminated event.
func spawn(path string, spec Spec) (*Child, <-chan Event, error) {
	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setSysProcAttr(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()
	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, nil, err
	}

	child := &Child{
		cmd:       cmd,
		path:      path,
		pid:       cmd.Process.Pid,
		runID:     ulid.Make().String(),
		startedAt: time.Now(),
		group:     newProcessGroup(cmd.Process),
		done:      make(chan struct{}),
		exitCode:  -1,
	}

	maxLine := spec.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	events := make(chan Event, eventBufferSize)

	var readers errgroup.Group
	readers.Go(func() error {
		readLines(stdoutR, EventStdout, maxLine, events)
		return nil
	})
	readers.Go(func() error {
		readLines(stderrR, EventStderr, maxLine, events)
		return nil
	})
	drained := make(chan struct{})
	go func() {
		_ = readers.Wait()
		close(drained)
	}()

	go func() {
		err := cmd.Wait()
		child.exitCode, child.signal = exitStatus(err)
		child.waitErr = err
		child.exitedAt = time.Now()
		child.group.release()
		close(child.done)

		// A process the backend left behind may still hold the pipes.
		select {
		case <-drained:
		case <-time.After(PipeDrainDelay):
			stdoutR.Close()
			stderrR.Close()
			<-drained
		}
		stdoutR.Close()
		stderrR.Close()

		events <- Event{Kind: EventTerminated, ExitCode: child.exitCode, Signal: child.signal}
		close(events)
	}()

	return child, events, nil
}

// readLines turns r into line events of the given kind until EOF.
// Oversized and non UTF-8 lines become EventError and are skipped.
func readLines(r io.Reader, kind EventKind, maxLine int, out chan<- Event) {
	br := bufio.NewReaderSize(r, readBufferSize)
	line := make([]byte, 0, 256)
	overflow := false

	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				out <- Event{Kind: EventError, Err: &StreamReadError{Stream: kind.String(), Err: err}}
			}
			return
		}

		if !overflow {
			if len(line)+len(chunk) > maxLine {
				overflow = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if isPrefix {
			continue
		}

		switch {
		case overflow:
			out <- Event{Kind: EventError, Err: &StreamReadError{Stream: kind.String(), Err: ErrLineTooLong}}
		case !utf8.Valid(line):
			out <- Event{Kind: EventError, Err: &StreamReadError{Stream: kind.String(), Err: ErrInvalidUTF8}}
		default:
			out <- Event{Kind: kind, Line: string(line)}
		}
		line = line[:0]
		overflow = false
	}
}

// exitStatus extracts the exit code and terminating signal from a Wait
// error. Signal deaths map to 128+signo, matching shell conventions.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1, ""
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), status.Signal().String()
	}
	return exitErr.ExitCode(), ""
}
