package syncengine

import "time"

// TaskResult is the outcome of one entity sync task. Skipped means the
// fresh-cache short-circuit fired: no upstream call was made and the task
// still counts as successful.
type TaskResult struct {
	Entity  string `json:"entity"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// RunResult aggregates one property's run. Success is the logical AND of all
// task successes; individual outcomes are preserved for observability.
type RunResult struct {
	PropertyID string       `json:"property_id"`
	Success    bool         `json:"success"`
	Tasks      []TaskResult `json:"tasks"`
	Reconciled int64        `json:"reconciled"`
}

// RunSummary aggregates a multi-property run. A failure in one property's
// run never aborts the others.
type RunSummary struct {
	Success         bool        `json:"success"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
	Results         []RunResult `json:"results"`
	TotalSynced     int         `json:"total_synced"`
	TotalReconciled int64       `json:"total_reconciled"`
}

// Window is an inclusive date range, YYYY-MM-DD property-local.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
