package constants

// RunStatus is the lifecycle state of one offline import run.
type RunStatus string

// Stable values (these exact strings appear in run summaries and logs).
const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)
