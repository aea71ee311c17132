package scheduler

import (
	"fmt"
	"maps"
	"slices"
)

// ContextEntry is what a completed task contributes to the run context.
type ContextEntry struct {
	OutputPath string
	Metadata   map[string]any
}

// RunContext is the append-only store of completed task outputs. Entries are
// write-once per task ID. It is owned by the scheduling loop and is not safe for
// concurrent mutation.
type RunContext struct {
	entries map[string]ContextEntry
}

// NewRunContext creates an empty run context.
func NewRunContext() *RunContext {
	return &RunContext{entries: make(map[string]ContextEntry)}
}

// Record stores the entry for taskID. Recording the same ID twice is an error.
func (c *RunContext) Record(taskID string, entry ContextEntry) error {
	if _, exists := c.entries[taskID]; exists {
		return fmt.Errorf("context entry for task %q already recorded", taskID)
	}
	entry.Metadata = maps.Clone(entry.Metadata)
	c.entries[taskID] = entry
	return nil
}

// Len returns the number of recorded entries.
func (c *RunContext) Len() int {
	return len(c.entries)
}

// View returns an immutable snapshot of the current entries.
func (c *RunContext) View() ContextView {
	return ContextView{entries: maps.Clone(c.entries)}
}

// ContextView is a read-only snapshot handed to actions.
type ContextView struct {
	entries map[string]ContextEntry
}

// Get returns the entry for taskID.
func (v ContextView) Get(taskID string) (ContextEntry, bool) {
	e, ok := v.entries[taskID]
	if ok {
		e.Metadata = maps.Clone(e.Metadata)
	}
	return e, ok
}

// OutputPath returns the output path recorded by taskID. It is false for tasks
// that were skipped, failed, or have not run.
func (v ContextView) OutputPath(taskID string) (string, bool) {
	e, ok := v.entries[taskID]
	if !ok {
		return "", false
	}
	return e.OutputPath, true
}

// Has reports whether taskID has an entry.
func (v ContextView) Has(taskID string) bool {
	_, ok := v.entries[taskID]
	return ok
}

// TaskIDs returns the recorded task IDs in sorted order.
func (v ContextView) TaskIDs() []string {
	return slices.Sorted(maps.Keys(v.entries))
}
