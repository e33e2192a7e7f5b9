package systemd

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestNotifierStates(t *testing.T) {
	var sent []string
	n := &Notifier{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		send: func(state string) (bool, error) {
			sent = append(sent, state)
			return true, nil
		},
	}

	n.Ready()
	n.Status("backend running")
	n.Stopping()

	want := []string{"READY=1", "STATUS=backend running", "STOPPING=1"}
	if len(sent) != len(want) {
		t.Fatalf("sent = %v, want %v", sent, want)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestNotifierSwallowsErrors(_ *testing.T) {
	n := &Notifier{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		send: func(string) (bool, error) {
			return false, errors.New("socket gone")
		},
	}
	n.Ready()
}

func TestNotifierOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	NewNotifier(nil).Ready()
}
