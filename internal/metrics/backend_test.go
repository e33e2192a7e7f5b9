package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBackendLifecycleMetrics(t *testing.T) {
	m := NewBackend()
	m.Init()

	if got := testutil.ToFloat64(m.exitCode); got != -1 {
		t.Errorf("initial last_exit_code = %v, want -1", got)
	}

	m.Spawned(time.Unix(1700000000, 0))
	if got := testutil.ToFloat64(m.up); got != 1 {
		t.Errorf("up = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.startTime); got != 1700000000 {
		t.Errorf("start_time_seconds = %v", got)
	}

	m.KillSent()
	m.Exited(137)

	if got := testutil.ToFloat64(m.up); got != 0 {
		t.Errorf("up after exit = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.exitCode); got != 137 {
		t.Errorf("last_exit_code = %v, want 137", got)
	}
	if got := testutil.ToFloat64(m.killSignals); got != 1 {
		t.Errorf("kill_signals_total = %v, want 1", got)
	}
}

func TestLineAndErrorCounters(t *testing.T) {
	m := NewBackend()
	m.HandleLine("stdout", "a")
	m.HandleLine("stdout", "b")
	m.HandleLine("stderr", "c")
	m.ReadError(errors.New("bad utf-8"))
	m.SpawnFailed()

	if got := testutil.ToFloat64(m.lines.WithLabelValues("stdout")); got != 2 {
		t.Errorf("stdout lines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lines.WithLabelValues("stderr")); got != 1 {
		t.Errorf("stderr lines = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.readErrors); got != 1 {
		t.Errorf("read errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.spawnFailures); got != 1 {
		t.Errorf("spawn failures = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewBackend()
	m.Init()
	m.HandleLine("stdout", "x")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`backendhost_backend_output_lines_total{stream="stdout"} 1`,
		"backendhost_backend_last_exit_code -1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
