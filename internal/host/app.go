// Package host composes the backend supervisor and output relay behind
// the two lifecycle hooks the desktop shell calls: application start and
// window close request.
package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/backendhost/internal/events"
	"github.com/smazurov/backendhost/internal/metrics"
	"github.com/smazurov/backendhost/internal/process"
	"github.com/smazurov/backendhost/internal/relay"
	"github.com/smazurov/backendhost/internal/systemd"
)

// DefaultExitWait bounds how long Shutdown waits for the backend to exit.
const DefaultExitWait = 2 * time.Second

// Config describes the backend the host supervises.
type Config struct {
	Backend process.Spec
	// ExitWait bounds the post-kill wait in Shutdown. Zero disables it.
	ExitWait time.Duration
}

// Options wires optional collaborators into the App. Nil fields are skipped.
type Options struct {
	// Logger for host operations. If nil, uses slog.Default().
	Logger *slog.Logger
	// SupervisorLogger and RelayLogger default to Logger.
	SupervisorLogger *slog.Logger
	RelayLogger      *slog.Logger
	// Sink receives backend output. If nil, a LogSink on Logger is used.
	Sink     relay.Sink
	EventBus *events.Bus
	Metrics  *metrics.Backend
	Notifier *systemd.Notifier
}

// App owns the supervisor for the lifetime of the application. It is
// created at application construction and handed to both lifecycle hooks.
type App struct {
	cfg        Config
	opts       Options
	logger     *slog.Logger
	supervisor *process.Supervisor

	mu        sync.Mutex
	relayDone <-chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates an App. Nothing is spawned until OnStart.
func New(cfg Config, opts *Options) *App {
	a := &App{cfg: cfg, closed: make(chan struct{})}
	if opts != nil {
		a.opts = *opts
	}
	a.logger = a.opts.Logger
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.opts.Sink == nil {
		a.opts.Sink = relay.NewLogSink(a.logger)
	}
	if a.opts.Metrics != nil {
		a.opts.Metrics.Init()
	}

	supLogger := a.opts.SupervisorLogger
	if supLogger == nil {
		supLogger = a.logger
	}
	a.supervisor = process.NewSupervisor(&process.Options{
		Logger:        supLogger,
		OnStateChange: a.onStateChange,
		OnKillSent:    a.onKillSent,
	})
	return a
}

// OnStart is the startup hook. It spawns the backend and starts relaying
// its output. An error is fatal: the application must not continue
// without its backend.
func (a *App) OnStart(ctx context.Context) error {
	output, child, err := a.supervisor.Start(ctx, a.cfg.Backend)
	if err != nil {
		return err
	}

	relayLogger := a.opts.RelayLogger
	if relayLogger == nil {
		relayLogger = a.logger
	}
	opts := []relay.Option{relay.WithLogger(relayLogger)}
	if a.opts.EventBus != nil {
		opts = append(opts, relay.WithOutputHandler(&outputPublisher{bus: a.opts.EventBus}))
	}
	if a.opts.Metrics != nil {
		opts = append(opts,
			relay.WithOutputHandler(a.opts.Metrics),
			relay.WithReadErrorHandler(a.opts.Metrics.ReadError),
		)
	}
	done := relay.New(a.opts.Sink, opts...).Start(output)

	a.mu.Lock()
	a.relayDone = done
	a.mu.Unlock()

	if a.opts.Notifier != nil {
		a.opts.Notifier.Status("backend running")
		a.opts.Notifier.Ready()
	}
	a.logger.Info("Host ready", "backend_pid", child.PID())
	return nil
}

// OnCloseRequested is the shutdown hook. It asks the backend to terminate
// and returns without waiting; it never fails.
func (a *App) OnCloseRequested() {
	a.closeOnce.Do(func() {
		close(a.closed)
		if a.opts.Notifier != nil {
			a.opts.Notifier.Stopping()
		}
		a.logger.Info("Close requested")
	})
	a.supervisor.Stop()
}

// Shutdown runs OnCloseRequested and then waits, bounded by ExitWait and
// ctx, for the backend to exit and the relay to drain. Call it only when
// the host process itself is about to exit.
func (a *App) Shutdown(ctx context.Context) error {
	a.OnCloseRequested()
	if a.cfg.ExitWait <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.ExitWait)
	defer cancel()

	if err := a.supervisor.Wait(ctx); err != nil {
		a.logger.Warn("Backend did not exit in time", "wait", a.cfg.ExitWait, "error", err)
		return err
	}

	if done := a.RelayDone(); done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Warn("Output relay did not drain in time")
			return ctx.Err()
		}
	}
	return nil
}

// Closed is closed once a close request has been received.
func (a *App) Closed() <-chan struct{} {
	return a.closed
}

// RelayDone is closed when the output relay has finished. It is nil
// before a successful OnStart.
func (a *App) RelayDone() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.relayDone
}

// Status returns the supervisor's view of the backend.
func (a *App) Status() process.Info {
	return a.supervisor.Status()
}

func (a *App) onStateChange(oldState, newState process.State, info process.Info) {
	if m := a.opts.Metrics; m != nil {
		switch newState {
		case process.StateRunning:
			m.Spawned(info.StartedAt)
		case process.StateError:
			m.SpawnFailed()
		case process.StateExited:
			m.Exited(info.ExitCode)
		}
	}

	if a.opts.EventBus != nil {
		ev := events.BackendStateChangedEvent{
			PreviousState: string(oldState),
			State:         string(newState),
			RunID:         info.RunID,
			PID:           info.PID,
			ExitCode:      info.ExitCode,
			Signal:        info.Signal,
			Timestamp:     time.Now().Format(time.RFC3339),
		}
		if info.LastError != nil {
			ev.Error = info.LastError.Error()
		}
		a.opts.EventBus.Publish(ev)
	}
}

func (a *App) onKillSent(int) {
	if m := a.opts.Metrics; m != nil {
		m.KillSent()
	}
}

// outputPublisher republishes relayed lines on the event bus.
type outputPublisher struct {
	bus *events.Bus
}

func (p *outputPublisher) HandleLine(stream, line string) {
	source := relay.SourceBackend
	if stream == process.EventStderr.String() {
		source = relay.SourceBackendError
	}
	p.bus.Publish(events.BackendOutputEvent{
		Stream:    stream,
		Source:    source,
		Line:      line,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}
