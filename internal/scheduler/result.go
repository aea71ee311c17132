package scheduler

import "time"

// TaskResult is the outcome record for one task. It is created once, when the
// task is first attempted or skipped, and never edited afterward.
type TaskResult struct {
	TaskID     string
	Agent      string
	Status     TaskStatus
	OutputPath string         // Set only for completed tasks that produced a file
	Error      string         // Set only for failed tasks
	Metadata   map[string]any // Full descriptor returned by the action
	StartedAt  time.Time
	Duration   time.Duration
}

// Succeeded reports whether the result satisfies dependents.
func (r TaskResult) Succeeded() bool {
	return r.Status == TaskCompleted || r.Status == TaskSkipped
}
