package domain

import "time"

// RunStatus enumerates pipeline run milestones.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunCounters holds per-stage progress of a pipeline run. Counters are
// persisted after every stage so a crash mid-run leaves an inspectable
// partial result.
type RunCounters struct {
	Collected int
	Generated int
	Scored    int
	Published int
	Failed    int
}

// PipelineRun is one end-to-end execution of the collect-to-publish
// sequence. At most one run may be in RunRunning state at any instant.
type PipelineRun struct {
	ID           string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Status       RunStatus
	Counters     RunCounters
	ErrorSummary string
}
