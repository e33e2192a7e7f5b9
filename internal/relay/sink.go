package relay

import "log/slog"

// Source labels attached to forwarded lines.
const (
	SourceBackend      = "Backend"
	SourceBackendError = "Backend Error"
)

// Sink receives backend output lines on two channels.
type Sink interface {
	Info(source, line string)
	Error(source, line string)
}

// LogSink forwards lines to a slog logger, informational lines at info
// level and error lines at error level, tagged with a source attribute.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Info implements Sink.
func (s *LogSink) Info(source, line string) {
	s.logger.Info(line, "source", source)
}

// Error implements Sink.
func (s *LogSink) Error(source, line string) {
	s.logger.Error(line, "source", source)
}
