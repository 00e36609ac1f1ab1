package model

import "time"

// RunStatus tracks the lifecycle of an annotation run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// AnnotationRun is the persisted record of one annotate invocation.
// Runs survive in the store so interrupted batches can be audited and
// resumed work attributed to its original invocation.
type AnnotationRun struct {
	ID         string    `json:"id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Model      string    `json:"model"`
	Status     RunStatus `json:"status"`

	RowsTotal     int `json:"rows_total"`
	RowsCompleted int `json:"rows_completed"`
	RowsFiltered  int `json:"rows_filtered"`
	RowsFailed    int `json:"rows_failed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
