package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask     = "task"
	TopicWorkflow = "workflow"
)

// Event type constants
const (
	EventTypeTaskStarted      = "task.started"
	EventTypeTaskOutput       = "task.output"
	EventTypeTaskCompleted    = "task.completed"
	EventTypeTaskFailed       = "task.failed"
	EventTypeTaskSkipped      = "task.skipped"
	EventTypeWorkflowProgress = "workflow.progress"
	EventTypeWorkflowFinished = "workflow.finished"
)

// TaskStartedEvent is published when a task's action is about to run.
type TaskStartedEvent struct {
	ID          string
	Description string
	Agent       string
	Timestamp   time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskOutputEvent carries one progress line for a task.
type TaskOutputEvent struct {
	ID        string
	Line      string
	Timestamp time.Time
}

func (e TaskOutputEvent) EventType() string { return EventTypeTaskOutput }
func (e TaskOutputEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task completes successfully.
type TaskCompletedEvent struct {
	ID         string
	OutputPath string
	Duration   time.Duration
	Timestamp  time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task fails.
type TaskFailedEvent struct {
	ID        string
	Err       error
	Skippable bool // False means the run is about to abort
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// TaskSkippedEvent is published when a skip-requested task is resolved.
type TaskSkippedEvent struct {
	ID          string
	Description string
	Agent       string
	Timestamp   time.Time
}

func (e TaskSkippedEvent) EventType() string { return EventTypeTaskSkipped }
func (e TaskSkippedEvent) TaskID() string    { return e.ID }

// WorkflowProgressEvent is published whenever a task changes state.
type WorkflowProgressEvent struct {
	RunID     string
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
	Pending   int
	Timestamp time.Time
}

func (e WorkflowProgressEvent) EventType() string { return EventTypeWorkflowProgress }
func (e WorkflowProgressEvent) TaskID() string    { return "" }

// WorkflowFinishedEvent is published once when the scheduling loop exits.
// Err is nil when every task reached a terminal state.
type WorkflowFinishedEvent struct {
	RunID     string
	Err       error
	Timestamp time.Time
}

func (e WorkflowFinishedEvent) EventType() string { return EventTypeWorkflowFinished }
func (e WorkflowFinishedEvent) TaskID() string    { return "" }
