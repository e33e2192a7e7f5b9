package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"backend": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"backend", true, true, true},
		{"api", false, false, true},
		{"supervisor", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("relay")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"relay": "debug"}})

	after := GetLogger("relay")
	if !after.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger should accept debug after Initialize with module override")
	}
}

func TestSetLevelsUpdatesExistingLoggers(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info"})

	logger := GetLogger("backend")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled initially")
	}

	SetLevels(Config{Level: "info", Modules: map[string]string{"backend": "debug"}})
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after SetLevels")
	}

	SetLevels(Config{Level: "error"})
	if logger.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled after raising global level to error")
	}
}

func TestBufferCapturesModuleAndAttributes(t *testing.T) {
	resetState()
	Initialize(Config{Level: "debug"})

	var seen []LogEntry
	SetLogCallback(func(entry LogEntry) {
		seen = append(seen, entry)
	})

	GetLogger("backend").Info("listening", "source", "Backend", "port", 5001)

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("expected buffered entry")
	}
	last := entries[len(entries)-1]
	if last.Module != "backend" {
		t.Errorf("Module = %q, want backend", last.Module)
	}
	if last.Message != "listening" {
		t.Errorf("Message = %q, want listening", last.Message)
	}
	if last.Attributes["source"] != "Backend" {
		t.Errorf("source attribute = %v, want Backend", last.Attributes["source"])
	}
	if len(seen) == 0 || seen[len(seen)-1].Seq != last.Seq {
		t.Errorf("callback did not receive the buffered entry")
	}
}

func TestMultiHandlerWritesOncePerEnabledHandler(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")
	logger.Info("both handlers")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("expected 1 debug line, got %d. Output: %s", count, output)
	}
	if count := strings.Count(output, "both handlers"); count != 2 {
		t.Errorf("expected 2 info lines, got %d. Output: %s", count, output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *slog.Level
	}{
		{"debug", ptr(slog.LevelDebug)},
		{"INFO", ptr(slog.LevelInfo)},
		{"warning", ptr(slog.LevelWarn)},
		{"error", ptr(slog.LevelError)},
		{"verbose", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseLevel(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseLevel(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func ptr(l slog.Level) *slog.Level { return &l }
