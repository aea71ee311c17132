package scheduler

import (
	"fmt"
	"slices"

	"github.com/gammazero/toposort"
)

// DAG holds the fixed task set for one run, in insertion order.
// It is driven by a single scheduling goroutine and is not locked.
type DAG struct {
	tasks      map[string]*Task    // All tasks indexed by ID
	order      []string            // Insertion order, used as the scan order
	dependents map[string][]string // Maps taskID -> list of tasks that depend on it
}

// NewDAG creates an empty DAG.
func NewDAG() *DAG {
	return &DAG{
		tasks:      make(map[string]*Task),
		dependents: make(map[string][]string),
	}
}

// AddTask adds a task to the DAG. Returns error if task ID already exists.
func (d *DAG) AddTask(task *Task) error {
	if task == nil || task.ID == "" {
		return &ConfigError{Issues: []string{"task must have a non-empty ID"}}
	}
	if _, exists := d.tasks[task.ID]; exists {
		return &ConfigError{Issues: []string{fmt.Sprintf("task with ID %q already exists", task.ID)}}
	}

	task.Status = TaskPending
	d.tasks[task.ID] = task
	d.order = append(d.order, task.ID)

	for _, depID := range task.DependsOn {
		d.dependents[depID] = append(d.dependents[depID], task.ID)
	}

	return nil
}

// Len returns the number of tasks.
func (d *DAG) Len() int {
	return len(d.tasks)
}

// Validate checks the graph before anything runs and returns a topological
// order. Dependencies on unknown IDs produce a *ConfigError; a cycle produces a
// *StuckWorkflowError with Cycle set, naming the tasks that can never run.
func (d *DAG) Validate() ([]string, error) {
	cfgErr := &ConfigError{}
	for _, taskID := range d.order {
		for _, depID := range d.tasks[taskID].DependsOn {
			if _, exists := d.tasks[depID]; !exists {
				cfgErr.Add("task %q depends on non-existent task %q", taskID, depID)
			}
		}
	}
	if err := cfgErr.ErrOrNil(); err != nil {
		return nil, err
	}

	// Edge (depID, taskID) means depID must come before taskID
	var edges []toposort.Edge
	for _, taskID := range d.order {
		task := d.tasks[taskID]
		if len(task.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, taskID})
			continue
		}
		for _, depID := range task.DependsOn {
			edges = append(edges, toposort.Edge{depID, taskID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, &StuckWorkflowError{Remaining: d.unreachable(), Cycle: true}
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}

	if len(order) != len(d.tasks) {
		return nil, &StuckWorkflowError{Remaining: d.unreachable(), Cycle: true}
	}

	return order, nil
}

// unreachable peels off tasks whose dependencies can all be satisfied and
// returns whatever is left: the members of cycles and everything downstream.
func (d *DAG) unreachable() []string {
	indegree := make(map[string]int, len(d.tasks))
	for id, task := range d.tasks {
		indegree[id] = len(task.DependsOn)
	}

	queue := []string{}
	for _, id := range d.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(indegree, id)
		for _, dep := range d.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	left := make([]string, 0, len(indegree))
	for _, id := range d.order {
		if _, ok := indegree[id]; ok {
			left = append(left, id)
		}
	}
	return left
}

// Get returns a copy of the task with the given ID.
func (d *DAG) Get(taskID string) (*Task, bool) {
	task, exists := d.tasks[taskID]
	if !exists {
		return nil, false
	}
	return cloneTask(task), true
}

// Tasks returns copies of all tasks in insertion order.
func (d *DAG) Tasks() []*Task {
	tasks := make([]*Task, 0, len(d.order))
	for _, id := range d.order {
		tasks = append(tasks, cloneTask(d.tasks[id]))
	}
	return tasks
}

// IDs returns task IDs in insertion order.
func (d *DAG) IDs() []string {
	return slices.Clone(d.order)
}

// Dependents returns the IDs of tasks that directly depend on taskID.
func (d *DAG) Dependents(taskID string) []string {
	return slices.Clone(d.dependents[taskID])
}

// MarkRunning sets task status to TaskRunning.
func (d *DAG) MarkRunning(taskID string) error {
	return d.advance(taskID, TaskRunning)
}

// MarkCompleted sets task status to TaskCompleted.
func (d *DAG) MarkCompleted(taskID string) error {
	return d.advance(taskID, TaskCompleted)
}

// MarkFailed sets task status to TaskFailed.
func (d *DAG) MarkFailed(taskID string) error {
	return d.advance(taskID, TaskFailed)
}

// MarkSkipped sets task status to TaskSkipped.
func (d *DAG) MarkSkipped(taskID string) error {
	return d.advance(taskID, TaskSkipped)
}

func (d *DAG) advance(taskID string, to TaskStatus) error {
	task, exists := d.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}
	if !task.Status.canAdvance(to) {
		return fmt.Errorf("task %q cannot move from %s to %s", taskID, task.Status, to)
	}
	task.Status = to
	return nil
}

