package domain

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// Stage names recorded in pipeline_runs.
const (
	StageDiscover  = "discover"
	StageSnapshot  = "snapshot"
	StageActivity  = "activity"
	StageAggregate = "aggregate"
)

// PipelineRun is the audit record of one stage execution.
// Append-only; status moves from running to success or error exactly once.
type PipelineRun struct {
	ID         int64
	Stage      string
	Status     RunStatus
	StartedAt  int64  // Unix ms
	FinishedAt *int64 // Unix ms, nil while running
	Records    int64
	Notes      string
}
