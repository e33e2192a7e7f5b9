package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/backendhost/internal/api/models"
	"github.com/smazurov/backendhost/internal/events"
	"github.com/smazurov/backendhost/internal/process"
)

func (s *Server) registerBackendRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-backend",
		Method:      http.MethodGet,
		Path:        "/api/backend",
		Summary:     "Backend Status",
		Description: "Current state of the supervised backend process",
		Tags:        []string{"backend"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.BackendStatusResponse, error) {
		if s.options.Backend == nil {
			return nil, huma.Error503ServiceUnavailable("backend supervision is not configured")
		}
		return &models.BackendStatusResponse{
			Body: backendStatusData(s.options.Backend.Status(), time.Now()),
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "backend-output-stream",
		Method:      http.MethodGet,
		Path:        "/api/backend/output",
		Summary:     "Backend Output Stream",
		Description: "Live backend output lines and state changes via Server-Sent Events. The current state is sent first.",
		Tags:        []string{"backend"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"output": events.BackendOutputEvent{},
		"state":  events.BackendStateChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 256)
		if s.eventBus != nil {
			unsubscribers := []func(){
				events.SubscribeToChannel[events.BackendOutputEvent](s.eventBus, eventCh),
				events.SubscribeToChannel[events.BackendStateChangedEvent](s.eventBus, eventCh),
			}
			defer func() {
				for _, unsub := range unsubscribers {
					unsub()
				}
			}()
		}

		if s.options.Backend != nil {
			if err := send.Data(currentStateEvent(s.options.Backend.Status())); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}

func backendStatusData(info process.Info, now time.Time) models.BackendStatusData {
	data := models.BackendStatusData{
		Executable: info.Executable,
		State:      string(info.State),
		RunID:      info.RunID,
		PID:        info.PID,
		ExitCode:   info.ExitCode,
		Signal:     info.Signal,
	}
	if !info.StartedAt.IsZero() {
		started := info.StartedAt
		data.StartedAt = &started
		if info.State == process.StateRunning {
			data.UptimeSeconds = now.Sub(started).Seconds()
		}
	}
	if !info.ExitedAt.IsZero() {
		exited := info.ExitedAt
		data.ExitedAt = &exited
	}
	if info.LastError != nil {
		data.LastError = info.LastError.Error()
	}
	return data
}

// currentStateEvent describes the present state as a transition from
// nothing, so a new stream client starts from a known state.
func currentStateEvent(info process.Info) events.BackendStateChangedEvent {
	ev := events.BackendStateChangedEvent{
		State:     string(info.State),
		RunID:     info.RunID,
		PID:       info.PID,
		ExitCode:  info.ExitCode,
		Signal:    info.Signal,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if info.LastError != nil {
		ev.Error = info.LastError.Error()
	}
	return ev
}
