package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"time"
)

// Agent is the named role that owns a task. Goal, Backstory and Tools are
// descriptive only and have no effect on execution.
type Agent struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Tools     []string
	Verbose   bool
	Logger    *log.Logger // Destination for progress lines (defaults to log.Default())
}

func (a *Agent) String() string {
	return fmt.Sprintf("Agent(name=%q, role=%q)", a.Name, a.Role)
}

func (a *Agent) logf(format string, args ...any) {
	if !a.Verbose {
		return
	}
	l := a.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf("[%s] "+format, append([]any{a.Name}, args...)...)
}

// ExecuteTask invokes the task's action and converts the outcome into a
// TaskResult. Errors and panics from the action become a failed result; whether
// that failure is fatal is decided by the caller.
func (a *Agent) ExecuteTask(ctx context.Context, task *Task, view ContextView) (result TaskResult) {
	start := time.Now()
	result = TaskResult{
		TaskID:    task.ID,
		Agent:     a.Name,
		StartedAt: start,
		Metadata:  map[string]any{},
	}

	a.logf("Starting task: %s", task.Description)
	a.logf("Goal: %s", a.Goal)

	defer func() {
		if r := recover(); r != nil {
			result.Status = TaskFailed
			result.Error = fmt.Sprintf("panic: %v", r)
			result.OutputPath = ""
			result.Duration = time.Since(start)
			a.logf("Task failed: %s", result.Error)
		}
	}()

	if task.Action == nil {
		result.Status = TaskFailed
		result.Error = "task has no action"
		result.Duration = time.Since(start)
		a.logf("Task failed: %s", result.Error)
		return result
	}

	out, err := task.Action.Run(ctx, view)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = TaskFailed
		result.Error = err.Error()
		a.logf("Task failed: %v", err)
		return result
	}

	result.Status = TaskCompleted
	result.OutputPath = out.Path
	maps.Copy(result.Metadata, out.Metadata)
	if out.Path != "" {
		result.Metadata["output_path"] = out.Path
	}
	a.logf("Task completed successfully")
	return result
}

// DiscardLogger is a logger that drops every line, for runs where progress is
// rendered elsewhere.
var DiscardLogger = log.New(io.Discard, "", 0)
