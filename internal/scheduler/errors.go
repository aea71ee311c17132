package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigError reports problems found before any task executes: duplicate or
// dangling task references, unknown skip requests, unresolved inputs.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 1 {
		return "configuration error: " + e.Issues[0]
	}
	return fmt.Sprintf("configuration error (%d issues): %s", len(e.Issues), strings.Join(e.Issues, "; "))
}

// Add appends an issue.
func (e *ConfigError) Add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// ErrOrNil returns e when it holds at least one issue.
func (e *ConfigError) ErrOrNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

// TaskFailedError is returned when a non-skippable task fails. Scheduling stops
// immediately; results recorded so far are left intact.
type TaskFailedError struct {
	TaskID string
	Err    error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("critical task %q failed: %v", e.TaskID, e.Err)
}

func (e *TaskFailedError) Unwrap() error {
	return e.Err
}

// StuckWorkflowError is returned when unresolved tasks remain but none can run.
// Cycle is set when the graph itself is cyclic (detected before execution);
// otherwise Blocked maps each remaining task to the dependencies it is still
// waiting on and Failed lists the skippable failures that stranded them.
type StuckWorkflowError struct {
	Remaining []string
	Blocked   map[string][]string
	Failed    []string
	Cycle     bool
}

func (e *StuckWorkflowError) Error() string {
	remaining := append([]string(nil), e.Remaining...)
	sort.Strings(remaining)

	if e.Cycle {
		return fmt.Sprintf("workflow stuck: dependency cycle among tasks: %s", strings.Join(remaining, ", "))
	}

	parts := make([]string, 0, len(remaining))
	for _, id := range remaining {
		deps := e.Blocked[id]
		if len(deps) == 0 {
			parts = append(parts, id)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (waiting on %s)", id, strings.Join(deps, ", ")))
	}
	msg := fmt.Sprintf("workflow stuck: cannot execute remaining tasks: %s", strings.Join(parts, "; "))
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(" (stranded by failed tasks: %s)", strings.Join(e.Failed, ", "))
	}
	return msg
}
