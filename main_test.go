package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/backendhost/internal/events"
	"github.com/smazurov/backendhost/internal/host"
	"github.com/smazurov/backendhost/internal/metrics"
	"github.com/smazurov/backendhost/internal/process"
)

func defaultOptions() *Options {
	return &Options{
		BackendExecutable:   "backend",
		BackendMaxLineBytes: 1 << 20,
		BackendExitWait:     "2s",
		LoggingLevel:        "info",
		LoggingFormat:       "text",
	}
}

func TestBackendConfigFromOptions(t *testing.T) {
	opts := defaultOptions()
	opts.BackendArgs = `--port 5001 --title "Desk App"`
	opts.BackendEnv = "MODE=desktop, DEBUG=1"

	spec, err := opts.backendConfig().Spec()
	if err != nil {
		t.Fatal(err)
	}
	want := process.Spec{
		Name:         "backend",
		Args:         []string{"--port", "5001", "--title", "Desk App"},
		Env:          []string{"MODE=desktop", "DEBUG=1"},
		MaxLineBytes: 1 << 20,
	}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("spec = %+v, want %+v", spec, want)
	}
}

func TestLoggingConfigSkipsUnsetModules(t *testing.T) {
	opts := defaultOptions()
	opts.LoggingSupervisor = "debug"

	cfg := opts.loggingConfig()
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Modules, map[string]string{"supervisor": "debug"}) {
		t.Errorf("Modules = %v", cfg.Modules)
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	opts := defaultOptions()
	opts.BackendExitWait = "later"
	if _, err := newApp(opts, events.New(), metrics.NewBackend()); err == nil {
		t.Error("expected error for bad exit wait")
	}

	opts = defaultOptions()
	opts.BackendArgs = `"unterminated`
	if _, err := newApp(opts, events.New(), metrics.NewBackend()); err == nil {
		t.Error("expected error for bad args")
	}

	opts = defaultOptions()
	app, err := newApp(opts, events.New(), metrics.NewBackend())
	if err != nil {
		t.Fatal(err)
	}
	if got := app.Status().State; got != process.StateIdle {
		t.Errorf("state = %s, want idle before start", got)
	}
}

func TestDefaultExitWaitMatchesHost(t *testing.T) {
	d, err := defaultOptions().backendConfig().ExitWaitDuration()
	if err != nil {
		t.Fatal(err)
	}
	if d != host.DefaultExitWait {
		t.Errorf("exit wait = %v", d)
	}
}

func TestShutdownFailureIsLogged(t *testing.T) {
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}
	var buf bytes.Buffer
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	// The helper keeps the output pipes open past the exit wait.
	app := host.New(host.Config{
		Backend:  process.Spec{Name: "sh", Args: []string{"-c", "setsid sleep 3 & exec sleep 30"}},
		ExitWait: 100 * time.Millisecond,
	}, &host.Options{Logger: quiet})
	if err := app.OnStart(context.Background()); err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	d := &daemon{logger: slog.New(slog.NewTextHandler(&buf, nil)), app: app}
	d.shutdownApp()

	if !strings.Contains(buf.String(), "Backend shutdown incomplete") {
		t.Errorf("log output = %q, want shutdown warning", buf.String())
	}
}
