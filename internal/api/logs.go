package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/backendhost/internal/api/models"
	"github.com/smazurov/backendhost/internal/events"
	"github.com/smazurov/backendhost/internal/logging"
)

func (s *Server) logBuffer() *logging.RingBuffer {
	if s.options.LogBuffer != nil {
		return s.options.LogBuffer
	}
	return logging.GetBuffer()
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Snapshot of recent host log entries, including relayed backend output",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogsInput) (*models.LogsResponse, error) {
		data := models.LogsData{
			Entries: []events.LogEntryEvent{},
			LastSeq: input.Since,
		}
		if buffer := s.logBuffer(); buffer != nil {
			for _, entry := range buffer.ReadSince(input.Since) {
				if input.Module != "" && entry.Module != input.Module {
					continue
				}
				data.Entries = append(data.Entries, events.NewLogEntryEvent(entry))
			}
		}
		if input.Limit > 0 && len(data.Entries) > input.Limit {
			data.Entries = data.Entries[len(data.Entries)-input.Limit:]
		}
		if n := len(data.Entries); n > 0 {
			data.LastSeq = data.Entries[n-1].Seq
		}
		data.Count = len(data.Entries)
		return &models.LogsResponse{Body: data}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Buffered entries after ?since are sent first, then new entries.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *models.LogStreamInput, send sse.Sender) {
		// Subscribe before replaying so nothing falls between history and live.
		eventCh := make(chan any, 256)
		if s.eventBus != nil {
			unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
			defer unsubscribe()
		}

		lastSeq := input.Since
		if buffer := s.logBuffer(); buffer != nil {
			for _, entry := range buffer.ReadSince(lastSeq) {
				if err := send.Data(events.NewLogEntryEvent(entry)); err != nil {
					return
				}
				lastSeq = entry.Seq
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				entry, ok := ev.(events.LogEntryEvent)
				if !ok || entry.Seq <= lastSeq {
					continue
				}
				if err := send.Data(entry); err != nil {
					return
				}
				lastSeq = entry.Seq
			}
		}
	})
}
