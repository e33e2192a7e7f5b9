package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/backendhost/internal/process"
	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string

	BackendExecutable string   `toml:"backend.executable" env:"BACKEND_EXECUTABLE"`
	BackendEnv        []string `toml:"backend.env" env:"BACKEND_ENV"`
	BackendMaxLine    int      `toml:"backend.max_line_bytes" env:"BACKEND_MAX_LINE_BYTES"`
	ServerEnabled     bool     `toml:"server.enabled" env:"SERVER_ENABLED"`
	ServerListen      string   `toml:"server.listen" env:"SERVER_LISTEN"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `
[backend]
executable = "api-server"
env = ["PORT=5001", "MODE=desktop"]
max_line_bytes = 4096

[server]
enabled = true
listen = "127.0.0.1:6000"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleConfig)}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.BackendExecutable != "api-server" {
		t.Errorf("BackendExecutable = %q", opts.BackendExecutable)
	}
	if want := []string{"PORT=5001", "MODE=desktop"}; !reflect.DeepEqual(opts.BackendEnv, want) {
		t.Errorf("BackendEnv = %v, want %v", opts.BackendEnv, want)
	}
	if opts.BackendMaxLine != 4096 {
		t.Errorf("BackendMaxLine = %d", opts.BackendMaxLine)
	}
	if !opts.ServerEnabled {
		t.Error("ServerEnabled = false")
	}
	if opts.ServerListen != "127.0.0.1:6000" {
		t.Errorf("ServerListen = %q", opts.ServerListen)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	t.Setenv("BACKENDHOST_BACKEND_EXECUTABLE", "from-env")
	t.Setenv("BACKENDHOST_BACKEND_ENV", "A=1, B=2,")
	t.Setenv("BACKENDHOST_SERVER_ENABLED", "false")
	t.Setenv("BACKENDHOST_BACKEND_MAX_LINE_BYTES", "not-a-number")

	opts := &testOptions{Config: writeConfig(t, sampleConfig)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.BackendExecutable != "from-env" {
		t.Errorf("BackendExecutable = %q, want from-env", opts.BackendExecutable)
	}
	if want := []string{"A=1", "B=2"}; !reflect.DeepEqual(opts.BackendEnv, want) {
		t.Errorf("BackendEnv = %v, want %v", opts.BackendEnv, want)
	}
	if opts.ServerEnabled {
		t.Error("ServerEnabled should be overridden to false")
	}
	if opts.BackendMaxLine != 4096 {
		t.Errorf("unparsable env value replaced TOML value: %d", opts.BackendMaxLine)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	t.Setenv("BACKENDHOST_SERVER_LISTEN", "0.0.0.0:7000")

	opts := &testOptions{Config: writeConfig(t, sampleConfig)}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.ServerListen, "server-listen", "", "")
	cmd.Flags().StringVar(&opts.BackendExecutable, "backend-executable", "", "")
	if err := cmd.Flags().Parse([]string{"--server-listen", "127.0.0.1:9999"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if opts.ServerListen != "127.0.0.1:9999" {
		t.Errorf("ServerListen = %q, want CLI value", opts.ServerListen)
	}
	if opts.BackendExecutable != "api-server" {
		t.Errorf("BackendExecutable = %q, want TOML value for unset flag", opts.BackendExecutable)
	}
}

func TestLoadConfigArrayIntoStringField(t *testing.T) {
	var opts struct {
		Config     string
		BackendEnv string `toml:"backend.env"`
	}
	opts.Config = writeConfig(t, sampleConfig)

	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.BackendEnv != "PORT=5001,MODE=desktop" {
		t.Errorf("BackendEnv = %q", opts.BackendEnv)
	}
	if got := SplitList(opts.BackendEnv); !reflect.DeepEqual(got, []string{"PORT=5001", "MODE=desktop"}) {
		t.Errorf("SplitList = %v", got)
	}
}

func TestSplitList(t *testing.T) {
	tests := map[string][]string{
		"":            {},
		"a":           {"a"},
		" a , b ,, ":  {"a", "b"},
		"K=V,X=1,2=3": {"K=V", "X=1", "2=3"},
	}
	for in, want := range tests {
		if got := SplitList(in); !reflect.DeepEqual(got, want) {
			t.Errorf("SplitList(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{
		Config:            filepath.Join(t.TempDir(), "absent.toml"),
		BackendExecutable: "backend",
	}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if opts.BackendExecutable != "backend" {
		t.Errorf("default overwritten: %q", opts.BackendExecutable)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, "[backend\nexecutable = ")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Fatal("expected error for non-pointer options")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Config":            "config",
		"ServerListen":      "server-listen",
		"BackendExitWait":   "backend-exit-wait",
		"LoggingSupervisor": "logging-supervisor",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"backend": map[string]any{"executable": "x"},
		"flat":    "y",
	}
	if got := getNestedValue(data, "backend.executable"); got != "x" {
		t.Errorf("nested = %v", got)
	}
	if got := getNestedValue(data, "flat"); got != "y" {
		t.Errorf("flat = %v", got)
	}
	if got := getNestedValue(data, "flat.missing"); got != nil {
		t.Errorf("path through scalar = %v, want nil", got)
	}
	if got := getNestedValue(data, "server.listen"); got != nil {
		t.Errorf("missing table = %v, want nil", got)
	}
}

func TestReadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
supervisor = "debug"
backend = "error"
`)
	cfg, err := ReadLoggingConfig(path)
	if err != nil {
		t.Fatalf("ReadLoggingConfig: %v", err)
	}
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("level/format = %s/%s", cfg.Level, cfg.Format)
	}
	want := map[string]string{"supervisor": "debug", "backend": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.toml"), writeConfig(t, "not toml =")} {
		cfg := LoadLoggingConfig(path)
		if cfg.Level != "info" || cfg.Format != "text" || len(cfg.Modules) != 0 {
			t.Errorf("LoadLoggingConfig(%q) = %+v, want defaults", path, cfg)
		}
	}
}

func TestBackendSpec(t *testing.T) {
	b := Backend{
		Executable:   "api-server",
		Args:         `--port 5001 --name "my app"`,
		Dir:          "/srv",
		Env:          []string{"MODE=desktop", "EMPTY="},
		MaxLineBytes: 2048,
	}
	spec, err := b.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	want := process.Spec{
		Name:         "api-server",
		Args:         []string{"--port", "5001", "--name", "my app"},
		Dir:          "/srv",
		Env:          []string{"MODE=desktop", "EMPTY="},
		MaxLineBytes: 2048,
	}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("Spec = %+v, want %+v", spec, want)
	}
}

func TestBackendSpecErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		target  error
	}{
		{name: "empty executable", backend: Backend{Executable: "  "}, target: process.ErrEmptyExecutable},
		{name: "unclosed quote", backend: Backend{Executable: "x", Args: `"abc`}, target: process.ErrUnclosedQuote},
		{name: "bad env", backend: Backend{Executable: "x", Env: []string{"NOEQUALS"}}},
		{name: "empty env key", backend: Backend{Executable: "x", Env: []string{"=v"}}},
		{name: "negative max line", backend: Backend{Executable: "x", MaxLineBytes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.backend.Spec()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestBackendExitWait(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "2s", want: 2 * time.Second},
		{in: "150ms", want: 150 * time.Millisecond},
		{in: "soon", wantErr: true},
		{in: "-1s", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Backend{ExitWait: tt.in}.ExitWaitDuration()
		if (err != nil) != tt.wantErr {
			t.Errorf("ExitWaitDuration(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExitWaitDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
