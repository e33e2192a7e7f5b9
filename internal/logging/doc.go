// Package logging provides structured logging with per-module log levels.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Records fan out to every available destination:
//   - stdout (text or json) when a terminal, pipe or file is attached
//   - the systemd journal when journald is reachable
//   - an in-memory ring buffer that backs the log API
//
// Initialize once at startup, then ask for a module logger:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"backend": "debug",
//		},
//	})
//
//	logger := logging.GetLogger("supervisor")
//	logger.Info("Backend started", "pid", pid)
//
// Levels can be changed at runtime with SetLevels; loggers already handed
// out pick up the change because every module owns a slog.LevelVar.
//
// When running under systemd, backend output can be filtered with:
//
//	journalctl -t backendhost MODULE=backend
//	journalctl -t backendhost SOURCE="Backend Error"
package logging
