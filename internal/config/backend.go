package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/smazurov/backendhost/internal/process"
)

// Backend is the [backend] table in its raw, flag-friendly form.
type Backend struct {
	Executable   string
	Args         string
	Dir          string
	Env          []string
	MaxLineBytes int
	ExitWait     string
}

// Spec converts the table into a process spec. Args is split with
// shell-like quoting; every Env entry must be KEY=VALUE.
func (b Backend) Spec() (process.Spec, error) {
	if strings.TrimSpace(b.Executable) == "" {
		return process.Spec{}, process.ErrEmptyExecutable
	}

	args, err := process.SplitArgs(b.Args)
	if err != nil {
		return process.Spec{}, fmt.Errorf("backend.args: %w", err)
	}

	for _, kv := range b.Env {
		if key, _, ok := strings.Cut(kv, "="); !ok || key == "" {
			return process.Spec{}, fmt.Errorf("backend.env: %q is not KEY=VALUE", kv)
		}
	}

	if b.MaxLineBytes < 0 {
		return process.Spec{}, fmt.Errorf("backend.max_line_bytes: must not be negative, got %d", b.MaxLineBytes)
	}

	return process.Spec{
		Name:         b.Executable,
		Args:         args,
		Dir:          b.Dir,
		Env:          b.Env,
		MaxLineBytes: b.MaxLineBytes,
	}, nil
}

// ExitWaitDuration parses ExitWait. Empty means no wait.
func (b Backend) ExitWaitDuration() (time.Duration, error) {
	if b.ExitWait == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.ExitWait)
	if err != nil {
		return 0, fmt.Errorf("backend.exit_wait: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("backend.exit_wait: must not be negative, got %s", d)
	}
	return d, nil
}
