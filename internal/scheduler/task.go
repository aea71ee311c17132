package scheduler

import (
	"context"
	"fmt"
)

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending   TaskStatus = iota // Waiting for dependencies
	TaskRunning                     // Action is executing
	TaskCompleted                   // Action returned normally
	TaskFailed                      // Action returned an error
	TaskSkipped                     // Skip requested, action never invoked
)

// String returns the lowercase status name used in reports and the run ledger.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskSkipped
}

// canAdvance enforces the forward-only lifecycle:
// pending -> running -> completed|failed, and pending -> skipped.
func (s TaskStatus) canAdvance(to TaskStatus) bool {
	switch s {
	case TaskPending:
		return to == TaskRunning || to == TaskSkipped
	case TaskRunning:
		return to == TaskCompleted || to == TaskFailed
	default:
		return false
	}
}

// Output is what an action hands back on success. Path may be empty; not every
// step produces a file.
type Output struct {
	Path     string
	Metadata map[string]any
}

// Action produces a task's output from a read-only view of the run context.
// A returned error marks the task failed.
type Action interface {
	Run(ctx context.Context, view ContextView) (Output, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, view ContextView) (Output, error)

// Run calls f(ctx, view).
func (f ActionFunc) Run(ctx context.Context, view ContextView) (Output, error) {
	return f(ctx, view)
}

// Task represents a unit of work in the workflow graph.
type Task struct {
	ID          string   // Unique identifier, stable for the run
	Description string   // Human-readable label
	Agent       *Agent   // Owner, used for reporting and progress lines
	Action      Action   // Work to perform
	DependsOn   []string // Task IDs that must be completed or skipped first
	Skippable   bool     // A failure does not abort the run
	Status      TaskStatus
}

// CanExecute reports whether every dependency is present in resolved.
// resolved holds the IDs of tasks that completed or were skipped.
func (t *Task) CanExecute(resolved map[string]bool) bool {
	for _, depID := range t.DependsOn {
		if !resolved[depID] {
			return false
		}
	}
	return true
}

// AgentName returns the owning agent's name, or "" when the task has none.
func (t *Task) AgentName() string {
	if t.Agent == nil {
		return ""
	}
	return t.Agent.Name
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}

	cp := *task
	if task.DependsOn != nil {
		cp.DependsOn = append([]string(nil), task.DependsOn...)
	}
	return &cp
}
