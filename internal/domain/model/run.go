package model

import "time"

// RunStatus tracks an asynchronous simulation job through its lifecycle.
type RunStatus string

// Run lifecycle states.
const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SimulationRun is the tracked state of one submitted simulation job. The
// Result field is populated only once the run completes.
type SimulationRun struct {
	RunID       string            `json:"run_id"`
	Status      RunStatus         `json:"status"`
	StartWeek   int               `json:"start_week"`
	EntryCount  int               `json:"entry_count"`
	Trials      int               `json:"trials"`
	Seed        int64             `json:"seed"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *SimulationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}
