package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/adrg/internal/events"
	"github.com/aristath/adrg/internal/scheduler"
)

// Run outcomes written to the ledger.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeStuck     = "stuck"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
)

// Recorder receives the run ledger as it is produced. Errors are logged and
// never affect scheduling.
type Recorder interface {
	StartRun(ctx context.Context, runID string, taskIDs []string) error
	RecordResult(ctx context.Context, runID string, result scheduler.TaskResult) error
	FinishRun(ctx context.Context, runID string, outcome string, runErr error) error
}

// CrewConfig configures a Crew.
type CrewConfig struct {
	RunID    string           // Generated when empty
	Verbose  bool             // Print the run banner and summary
	Logger   *log.Logger      // Destination for banner/summary lines (defaults to log.Default())
	Bus      events.Publisher // Optional event sink (nil disables)
	Recorder Recorder         // Optional run ledger (nil disables)
}

// Crew runs a fixed set of tasks to completion in dependency order.
// Tasks that become runnable in the same pass are executed one after another in
// insertion order; there is no real parallelism and no retry.
type Crew struct {
	config   CrewConfig
	dag      *scheduler.DAG
	agents   []*scheduler.Agent
	context  *scheduler.RunContext
	results  map[string]scheduler.TaskResult
	resolved map[string]bool // completed or skipped
	failed   map[string]bool
	running  int
	started  bool
}

// NewCrew builds a Crew from tasks. Duplicate IDs and tasks without an agent
// are reported as a *scheduler.ConfigError.
func NewCrew(cfg CrewConfig, tasks []*scheduler.Task) (*Crew, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	c := &Crew{
		config:   cfg,
		dag:      scheduler.NewDAG(),
		context:  scheduler.NewRunContext(),
		results:  make(map[string]scheduler.TaskResult),
		resolved: make(map[string]bool),
		failed:   make(map[string]bool),
	}

	cfgErr := &scheduler.ConfigError{}
	seenAgents := make(map[*scheduler.Agent]bool)
	for _, task := range tasks {
		if task.Agent == nil {
			cfgErr.Add("task %q has no agent", task.ID)
			continue
		}
		if err := c.dag.AddTask(task); err != nil {
			var ce *scheduler.ConfigError
			if errors.As(err, &ce) {
				cfgErr.Issues = append(cfgErr.Issues, ce.Issues...)
				continue
			}
			return nil, err
		}
		if !seenAgents[task.Agent] {
			seenAgents[task.Agent] = true
			c.agents = append(c.agents, task.Agent)
		}
	}
	if err := cfgErr.ErrOrNil(); err != nil {
		return nil, err
	}

	return c, nil
}

// RunID identifies this run in events and the ledger.
func (c *Crew) RunID() string {
	return c.config.RunID
}

// TaskIDs returns task IDs in the order they were added.
func (c *Crew) TaskIDs() []string {
	return c.dag.IDs()
}

// Result returns the recorded result for taskID.
func (c *Crew) Result(taskID string) (scheduler.TaskResult, bool) {
	r, ok := c.results[taskID]
	return r, ok
}

// Context returns a snapshot of the run context.
func (c *Crew) Context() scheduler.ContextView {
	return c.context.View()
}

// Kickoff validates the graph and the skip requests, then runs the scheduling
// loop until every task is completed, skipped or failed. The results recorded so
// far are returned even when err is non-nil.
//
// err is a *scheduler.ConfigError or *scheduler.StuckWorkflowError (cycle) when
// validation fails before anything runs, a *scheduler.TaskFailedError when a
// non-skippable task fails, a *scheduler.StuckWorkflowError when dependents of a
// skippable failure can never run, or the context error on cancellation.
func (c *Crew) Kickoff(ctx context.Context, skips map[string]bool) (map[string]scheduler.TaskResult, error) {
	if c.started {
		return c.snapshot(), errors.New("crew has already been kicked off")
	}
	c.started = true

	if err := c.validate(skips); err != nil {
		c.record(func() error { return c.config.Recorder.StartRun(ctx, c.config.RunID, c.dag.IDs()) })
		return c.finish(ctx, OutcomeInvalid, err)
	}

	c.record(func() error { return c.config.Recorder.StartRun(ctx, c.config.RunID, c.dag.IDs()) })
	c.banner()

	total := c.dag.Len()
	for len(c.resolved)+len(c.failed) < total {
		if err := ctx.Err(); err != nil {
			return c.finish(ctx, OutcomeCancelled, fmt.Errorf("workflow cancelled: %w", err))
		}

		var runnable []*scheduler.Task
		skipped := 0

		for _, taskID := range c.dag.IDs() {
			if c.resolved[taskID] || c.failed[taskID] {
				continue
			}

			task, _ := c.dag.Get(taskID)
			if skips[taskID] {
				c.skip(ctx, task)
				skipped++
				continue
			}

			if task.CanExecute(c.resolved) {
				runnable = append(runnable, task)
			}
		}

		if len(runnable) == 0 {
			if skipped > 0 {
				// Skips resolved this pass may unlock tasks scanned earlier.
				continue
			}
			if len(c.resolved)+len(c.failed) < total {
				err := c.stuckError()
				c.logf("\n❌ %v\n", err)
				return c.finish(ctx, OutcomeStuck, err)
			}
			break
		}

		for _, task := range runnable {
			if err := ctx.Err(); err != nil {
				return c.finish(ctx, OutcomeCancelled, fmt.Errorf("workflow cancelled: %w", err))
			}
			if err := c.execute(ctx, task); err != nil {
				return c.finish(ctx, OutcomeFailed, err)
			}
		}
	}

	c.summary()
	return c.finish(ctx, OutcomeCompleted, nil)
}

// validate performs every check that must pass before any action runs.
func (c *Crew) validate(skips map[string]bool) error {
	if _, err := c.dag.Validate(); err != nil {
		return err
	}

	cfgErr := &scheduler.ConfigError{}
	for taskID, skip := range skips {
		if !skip {
			continue
		}
		if _, ok := c.dag.Get(taskID); !ok {
			cfgErr.Add("skip requested for unknown task %q", taskID)
		}
	}
	return cfgErr.ErrOrNil()
}

// skip resolves a skip-requested task. It satisfies dependents but adds
// nothing to the run context; dependents fall back to their own defaults.
func (c *Crew) skip(ctx context.Context, task *scheduler.Task) {
	if err := c.dag.MarkSkipped(task.ID); err != nil {
		log.Printf("ERROR: failed to mark task %q as skipped: %v", task.ID, err)
	}

	c.logf("⏭️  Skipping task: %s", task.ID)

	result := scheduler.TaskResult{
		TaskID:    task.ID,
		Agent:     task.AgentName(),
		Status:    scheduler.TaskSkipped,
		Metadata:  map[string]any{},
		StartedAt: time.Now(),
	}
	c.resolved[task.ID] = true
	c.store(ctx, result)

	c.publish(events.TopicTask, events.TaskSkippedEvent{
		ID:          task.ID,
		Description: task.Description,
		Agent:       task.AgentName(),
		Timestamp:   time.Now(),
	})
	c.publishProgress()
}

// execute runs one task through its agent and applies the outcome. It returns
// a non-nil error only when the run must stop.
func (c *Crew) execute(ctx context.Context, task *scheduler.Task) error {
	if err := c.dag.MarkRunning(task.ID); err != nil {
		return fmt.Errorf("scheduling task %q: %w", task.ID, err)
	}
	c.running++

	c.publish(events.TopicTask, events.TaskStartedEvent{
		ID:          task.ID,
		Description: task.Description,
		Agent:       task.AgentName(),
		Timestamp:   time.Now(),
	})
	c.publishLine(task.ID, "Goal: "+task.Agent.Goal)
	c.publishProgress()

	result := task.Agent.ExecuteTask(ctx, task, c.context.View())
	c.running--

	switch result.Status {
	case scheduler.TaskCompleted:
		if err := c.dag.MarkCompleted(task.ID); err != nil {
			log.Printf("ERROR: failed to mark task %q as completed: %v", task.ID, err)
		}
		c.resolved[task.ID] = true
		c.store(ctx, result)

		if result.OutputPath != "" {
			entry := scheduler.ContextEntry{OutputPath: result.OutputPath, Metadata: result.Metadata}
			if err := c.context.Record(task.ID, entry); err != nil {
				log.Printf("ERROR: %v", err)
			}
			c.publishLine(task.ID, "Output: "+result.OutputPath)
		}

		c.publish(events.TopicTask, events.TaskCompletedEvent{
			ID:         task.ID,
			OutputPath: result.OutputPath,
			Duration:   result.Duration,
			Timestamp:  time.Now(),
		})
		c.publishProgress()
		return nil

	default:
		if err := c.dag.MarkFailed(task.ID); err != nil {
			log.Printf("ERROR: failed to mark task %q as failed: %v", task.ID, err)
		}
		c.failed[task.ID] = true
		c.store(ctx, result)

		taskErr := errors.New(result.Error)
		c.publishLine(task.ID, "Error: "+result.Error)
		c.publish(events.TopicTask, events.TaskFailedEvent{
			ID:        task.ID,
			Err:       taskErr,
			Skippable: task.Skippable,
			Duration:  result.Duration,
			Timestamp: time.Now(),
		})
		c.publishProgress()

		if task.Skippable {
			log.Printf("WARNING: optional task %q failed: %s", task.ID, result.Error)
			return nil
		}

		c.logf("\n❌ Critical task failed: %s\n   Error: %s\n", task.ID, result.Error)
		return &scheduler.TaskFailedError{TaskID: task.ID, Err: taskErr}
	}
}

// stuckError describes every unresolved task and what it still waits on.
func (c *Crew) stuckError() *scheduler.StuckWorkflowError {
	stuck := &scheduler.StuckWorkflowError{Blocked: make(map[string][]string)}
	for _, taskID := range c.dag.IDs() {
		if c.resolved[taskID] || c.failed[taskID] {
			continue
		}
		stuck.Remaining = append(stuck.Remaining, taskID)

		task, _ := c.dag.Get(taskID)
		for _, depID := range task.DependsOn {
			if !c.resolved[depID] {
				stuck.Blocked[taskID] = append(stuck.Blocked[taskID], depID)
			}
		}
	}
	for _, taskID := range c.dag.IDs() {
		if c.failed[taskID] {
			stuck.Failed = append(stuck.Failed, taskID)
		}
	}
	return stuck
}

// store writes the canonical result once and forwards it to the ledger. The
// result of a task interrupted by cancellation is still recorded.
func (c *Crew) store(ctx context.Context, result scheduler.TaskResult) {
	c.results[result.TaskID] = result
	c.record(func() error {
		return c.config.Recorder.RecordResult(context.WithoutCancel(ctx), c.config.RunID, result)
	})
}

func (c *Crew) finish(ctx context.Context, outcome string, runErr error) (map[string]scheduler.TaskResult, error) {
	c.publish(events.TopicWorkflow, events.WorkflowFinishedEvent{
		RunID:     c.config.RunID,
		Err:       runErr,
		Timestamp: time.Now(),
	})
	// The ledger must capture cancelled runs too, so it does not inherit ctx cancellation.
	c.record(func() error {
		return c.config.Recorder.FinishRun(context.WithoutCancel(ctx), c.config.RunID, outcome, runErr)
	})
	return c.snapshot(), runErr
}

func (c *Crew) snapshot() map[string]scheduler.TaskResult {
	return maps.Clone(c.results)
}

func (c *Crew) record(fn func() error) {
	if c.config.Recorder == nil {
		return
	}
	if err := fn(); err != nil {
		log.Printf("WARNING: run ledger: %v", err)
	}
}

func (c *Crew) publish(topic string, event events.Event) {
	if c.config.Bus == nil {
		return
	}
	c.config.Bus.Publish(topic, event)
}

func (c *Crew) publishLine(taskID, line string) {
	c.publish(events.TopicTask, events.TaskOutputEvent{ID: taskID, Line: line, Timestamp: time.Now()})
}

func (c *Crew) publishProgress() {
	if c.config.Bus == nil {
		return
	}

	ev := events.WorkflowProgressEvent{
		RunID:     c.config.RunID,
		Total:     c.dag.Len(),
		Failed:    len(c.failed),
		Running:   c.running,
		Timestamp: time.Now(),
	}
	for _, r := range c.results {
		switch r.Status {
		case scheduler.TaskCompleted:
			ev.Completed++
		case scheduler.TaskSkipped:
			ev.Skipped++
		}
	}
	ev.Pending = ev.Total - ev.Completed - ev.Skipped - ev.Failed - ev.Running
	c.config.Bus.Publish(events.TopicWorkflow, ev)
}

func (c *Crew) logf(format string, args ...any) {
	if !c.config.Verbose {
		return
	}
	c.config.Logger.Printf(format, args...)
}

func (c *Crew) banner() {
	if !c.config.Verbose {
		return
	}
	rule := strings.Repeat("=", 80)
	c.logf("%s", rule)
	c.logf("🚀 Multi-Agent ADRG Generation Workflow (run %s)", c.config.RunID)
	c.logf("%s", rule)
	c.logf("Total agents: %d", len(c.agents))
	c.logf("Total tasks: %d", c.dag.Len())
	c.logf("Agents:")
	for _, a := range c.agents {
		c.logf("  - %s: %s", a.Name, a.Role)
	}
	c.logf("%s", rule)
}

func (c *Crew) summary() {
	if !c.config.Verbose {
		return
	}
	var completed, skipped int
	for _, r := range c.results {
		switch r.Status {
		case scheduler.TaskCompleted:
			completed++
		case scheduler.TaskSkipped:
			skipped++
		}
	}
	rule := strings.Repeat("=", 80)
	c.logf("%s", rule)
	c.logf("✅ Workflow Completed!")
	c.logf("%s", rule)
	c.logf("Completed tasks: %d", completed)
	c.logf("Failed tasks: %d", len(c.failed))
	c.logf("Skipped tasks: %d", skipped)
}
