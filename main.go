package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/backendhost/cmd"
	"github.com/smazurov/backendhost/internal/api"
	"github.com/smazurov/backendhost/internal/config"
	"github.com/smazurov/backendhost/internal/events"
	"github.com/smazurov/backendhost/internal/host"
	"github.com/smazurov/backendhost/internal/logging"
	"github.com/smazurov/backendhost/internal/metrics"
	"github.com/smazurov/backendhost/internal/relay"
	"github.com/smazurov/backendhost/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Backend process
	BackendExecutable   string `help:"Backend executable name or path" default:"backend" toml:"backend.executable" env:"BACKEND_EXECUTABLE"`
	BackendArgs         string `help:"Backend arguments, shell-style quoting" default:"" toml:"backend.args" env:"BACKEND_ARGS"`
	BackendDir          string `help:"Backend working directory" default:"" toml:"backend.dir" env:"BACKEND_DIR"`
	BackendEnv          string `help:"Extra backend environment, comma-separated KEY=VALUE" default:"" toml:"backend.env" env:"BACKEND_ENV"`
	BackendMaxLineBytes int    `help:"Longest accepted backend output line in bytes" default:"1048576" toml:"backend.max_line_bytes" env:"BACKEND_MAX_LINE_BYTES"`
	BackendExitWait     string `help:"How long to wait for the backend to exit on shutdown" default:"2s" toml:"backend.exit_wait" env:"BACKEND_EXIT_WAIT"`

	// Server settings
	ServerEnabled bool   `help:"Serve the local API and frontend" default:"true" toml:"server.enabled" env:"SERVER_ENABLED"`
	ServerListen  string `help:"API listen address" short:"l" default:"127.0.0.1:5050" toml:"server.listen" env:"SERVER_LISTEN"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingBackend    string `help:"Relayed backend output logging level" default:"" toml:"logging.backend" env:"LOGGING_BACKEND"`
	LoggingRelay      string `help:"Output relay logging level" default:"" toml:"logging.relay" env:"LOGGING_RELAY"`
	LoggingAPI        string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP access logging level" default:"" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingWatch      bool   `help:"Reload logging levels when the config file changes" default:"true" toml:"logging.watch" env:"LOGGING_WATCH"`
}

func (o *Options) backendConfig() config.Backend {
	return config.Backend{
		Executable:   o.BackendExecutable,
		Args:         o.BackendArgs,
		Dir:          o.BackendDir,
		Env:          config.SplitList(o.BackendEnv),
		MaxLineBytes: o.BackendMaxLineBytes,
		ExitWait:     o.BackendExitWait,
	}
}

func (o *Options) loggingConfig() logging.Config {
	modules := map[string]string{}
	for module, level := range map[string]string{
		"supervisor": o.LoggingSupervisor,
		"backend":    o.LoggingBackend,
		"relay":      o.LoggingRelay,
		"api":        o.LoggingAPI,
		"http":       o.LoggingHTTP,
	} {
		if level != "" {
			modules[module] = level
		}
	}
	return logging.Config{
		Level:   o.LoggingLevel,
		Format:  o.LoggingFormat,
		Modules: modules,
	}
}

// newApp builds the host from options. Nothing is spawned yet.
func newApp(opts *Options, eventBus *events.Bus, backendMetrics *metrics.Backend) (*host.App, error) {
	b := opts.backendConfig()
	spec, err := b.Spec()
	if err != nil {
		return nil, err
	}
	exitWait, err := b.ExitWaitDuration()
	if err != nil {
		return nil, err
	}

	return host.New(host.Config{Backend: spec, ExitWait: exitWait}, &host.Options{
		Logger:           logging.GetLogger("main"),
		SupervisorLogger: logging.GetLogger("supervisor"),
		RelayLogger:      logging.GetLogger("relay"),
		Sink:             relay.NewLogSink(logging.GetLogger("backend")),
		EventBus:         eventBus,
		Metrics:          backendMetrics,
		Notifier:         systemd.NewNotifier(logging.GetLogger("main")),
	}), nil
}

// daemon holds what the CLI callback builds for the hooks and subcommands.
type daemon struct {
	opts   *Options
	logger *slog.Logger
	app    *host.App
	appErr error
	server *api.Server

	mu      sync.Mutex
	watcher *config.Watcher[logging.Config]
}

func (d *daemon) startWatcher() {
	if !d.opts.LoggingWatch || d.opts.Config == "" {
		return
	}
	if _, err := os.Stat(d.opts.Config); err != nil {
		return
	}
	w, err := config.WatchLogging(d.opts.Config, logging.GetLogger("config"))
	if err != nil {
		d.logger.Warn("Failed to watch config file", "path", d.opts.Config, "error", err)
		return
	}
	d.mu.Lock()
	d.watcher = w
	d.mu.Unlock()
}

func (d *daemon) stopWatcher() {
	d.mu.Lock()
	w := d.watcher
	d.watcher = nil
	d.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

// runner hands the app to the backend command.
func (d *daemon) runner() (cmd.Runner, error) {
	if d.appErr != nil {
		return nil, d.appErr
	}
	d.startWatcher()
	return d.app, nil
}

func (d *daemon) onStart() {
	if d.appErr != nil {
		d.logger.Error("Invalid backend configuration", "error", d.appErr)
		os.Exit(1)
	}
	d.startWatcher()

	if err := d.app.OnStart(context.Background()); err != nil {
		d.logger.Error("Failed to start backend", "error", err)
		d.stopWatcher()
		os.Exit(1)
	}

	if d.server == nil {
		<-d.app.Closed()
		return
	}
	if err := d.server.Start(d.opts.ServerListen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.logger.Error("Failed to start HTTP server", "error", err)
		d.shutdownApp()
		d.stopWatcher()
		os.Exit(1)
	}
}

// shutdownApp kills the backend and waits for it within the exit wait.
func (d *daemon) shutdownApp() {
	if err := d.app.Shutdown(context.Background()); err != nil {
		d.logger.Warn("Backend shutdown incomplete", "error", err)
	}
}

func (d *daemon) onStop() {
	d.logger.Info("Shutting down")
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.logger.Error("Error stopping HTTP server", "error", err)
		}
	}
	if d.app != nil {
		d.shutdownApp()
	}
	d.stopWatcher()
}

func main() {
	d := &daemon{}

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if err := config.LoadConfig(opts, cli.Root()); err != nil {
			slog.Warn("Failed to load config", "error", err)
		}

		logging.Initialize(opts.loggingConfig())
		d.opts = opts
		d.logger = logging.GetLogger("main")

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.NewLogEntryEvent(entry))
		})

		backendMetrics := metrics.NewBackend()
		d.app, d.appErr = newApp(opts, eventBus, backendMetrics)

		if opts.ServerEnabled && d.app != nil {
			d.server = api.NewServer(&api.Options{
				AuthUsername:      opts.AuthUsername,
				AuthPassword:      opts.AuthPassword,
				Backend:           d.app,
				EventBus:          eventBus,
				PrometheusHandler: backendMetrics.Handler(),
			})
		}

		hooks.OnStart(d.onStart)
		hooks.OnStop(d.onStop)
	})

	root := cli.Root()
	root.Use = "backendhost"
	root.Short = "Supervise a backend sidecar process and relay its output"
	root.AddCommand(cmd.CreateBackendCmd(d.runner))
	root.AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
