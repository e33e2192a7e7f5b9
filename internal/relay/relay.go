// Package relay drains the backend's output events into a log sink.
package relay

import (
	"log/slog"

	"github.com/smazurov/backendhost/internal/process"
)

// OutputHandler receives every forwarded line along with its stream name
// ("stdout" or "stderr"). Implementations can publish events, count lines, etc.
type OutputHandler interface {
	HandleLine(stream, line string)
}

// Relay forwards process output events to a Sink.
type Relay struct {
	sink         Sink
	logger       *slog.Logger
	handlers     []OutputHandler
	onReadError  func(error)
	onTerminated func(exitCode int, signal string)
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for the relay's own diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithOutputHandler adds a handler called for every stdout and stderr line,
// after the sink.
func WithOutputHandler(h OutputHandler) Option {
	return func(r *Relay) {
		r.handlers = append(r.handlers, h)
	}
}

// WithReadErrorHandler sets a callback for skipped, unreadable output.
func WithReadErrorHandler(fn func(error)) Option {
	return func(r *Relay) {
		r.onReadError = fn
	}
}

// WithTerminationHandler sets a callback for the termination event.
func WithTerminationHandler(fn func(exitCode int, signal string)) Option {
	return func(r *Relay) {
		r.onTerminated = fn
	}
}

// New creates a relay forwarding to sink.
func New(sink Sink, opts ...Option) *Relay {
	r := &Relay{sink: sink}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run drains events until the channel is closed.
func (r *Relay) Run(events <-chan process.Event) {
	var forwarded int
	for ev := range events {
		if r.dispatch(ev) {
			forwarded++
		}
	}
	r.logger.Debug("Backend output stream closed", "lines", forwarded)
}

// Start runs the relay in its own goroutine. The returned channel is
// closed when the event stream has ended.
func (r *Relay) Start(events <-chan process.Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(events)
	}()
	return done
}

// dispatch handles a single event and reports whether a line was forwarded.
// A panicking sink or handler costs only the current event.
func (r *Relay) dispatch(ev process.Event) (forwarded bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered from panic while relaying output", "kind", ev.Kind.String(), "panic", p)
			forwarded = false
		}
	}()

	switch ev.Kind {
	case process.EventStdout:
		r.sink.Info(SourceBackend, ev.Line)
	case process.EventStderr:
		r.sink.Error(SourceBackendError, ev.Line)
	case process.EventError:
		r.logger.Warn("Skipped unreadable backend output", "error", ev.Err)
		if r.onReadError != nil {
			r.onReadError(ev.Err)
		}
		return false
	case process.EventTerminated:
		r.logger.Info("Backend terminated", "exit_code", ev.ExitCode, "signal", ev.Signal)
		if r.onTerminated != nil {
			r.onTerminated(ev.ExitCode, ev.Signal)
		}
		return false
	default:
		return false
	}

	for _, h := range r.handlers {
		h.HandleLine(ev.Kind.String(), ev.Line)
	}
	return true
}
