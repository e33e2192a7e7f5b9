// Package models holds the request and response shapes of the HTTP API.
package models

import (
	"time"

	"github.com/smazurov/backendhost/internal/events"
)

// HealthData is the health check body.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Backend string `json:"backend" example:"running" doc:"Backend process state"`
}

type HealthResponse struct {
	Body HealthData
}

// VersionData describes the host build.
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"local" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// BackendStatusData is a snapshot of the supervised backend.
type BackendStatusData struct {
	Executable    string     `json:"executable" example:"/opt/app/backend" doc:"Resolved backend executable"`
	State         string     `json:"state" example:"running" enum:"idle,starting,running,stopping,exited,error" doc:"Lifecycle state"`
	RunID         string     `json:"run_id,omitempty" example:"01JJ6Q7W3V5T9E2M8X4K0N1RZC" doc:"ULID of the current or last run"`
	PID           int        `json:"pid,omitempty" example:"4242" doc:"Process ID of the current or last backend"`
	StartedAt     *time.Time `json:"started_at,omitempty" doc:"When the backend was spawned"`
	ExitedAt      *time.Time `json:"exited_at,omitempty" doc:"When the backend exit was observed"`
	UptimeSeconds float64    `json:"uptime_seconds,omitempty" example:"12.5" doc:"Seconds since spawn while running"`
	ExitCode      int        `json:"exit_code" example:"-1" doc:"Exit code, -1 until the backend exits"`
	Signal        string     `json:"signal,omitempty" example:"killed" doc:"Terminating signal, if any"`
	LastError     string     `json:"last_error,omitempty" doc:"Most recent spawn or wait error"`
}

type BackendStatusResponse struct {
	Body BackendStatusData
}

// LogsInput filters the buffered log snapshot.
type LogsInput struct {
	Since  uint64 `query:"since" doc:"Only entries with a sequence number greater than this"`
	Limit  int    `query:"limit" default:"200" minimum:"1" maximum:"1000" doc:"Maximum number of entries, newest kept"`
	Module string `query:"module" example:"backend" doc:"Only entries from this module"`
}

// LogsData is a snapshot of the log ring buffer.
type LogsData struct {
	Entries []events.LogEntryEvent `json:"entries" doc:"Log entries, oldest first"`
	Count   int                    `json:"count" example:"2" doc:"Number of entries returned"`
	LastSeq uint64                 `json:"last_seq" example:"42" doc:"Highest sequence number returned, or the since value"`
}

type LogsResponse struct {
	Body LogsData
}

// LogStreamInput positions a log stream after a known entry.
type LogStreamInput struct {
	Since uint64 `query:"since" doc:"Resume after this sequence number"`
}
