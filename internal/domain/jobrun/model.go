package jobrun

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run records one execution of a named pipeline job, scheduled or manual.
// Skipped marks runs that completed without doing work (quota pre-flight,
// overlap protection); a skipped run still counts as succeeded.
type Run struct {
	JobName     string         `json:"job_name"`
	Status      Status         `json:"status"`
	Skipped     bool           `json:"skipped,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Duration    time.Duration  `json:"duration"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}
