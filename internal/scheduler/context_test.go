package scheduler

import (
	"slices"
	"testing"
)

func TestRunContextWriteOnce(t *testing.T) {
	rc := NewRunContext()
	if err := rc.Record("A", ContextEntry{OutputPath: "a.csv"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rc.Record("A", ContextEntry{OutputPath: "other.csv"}); err == nil {
		t.Fatal("second Record() for same task should fail")
	}

	path, ok := rc.View().OutputPath("A")
	if !ok || path != "a.csv" {
		t.Errorf("OutputPath(A) = %q, %v", path, ok)
	}
	if rc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rc.Len())
	}
}

func TestContextViewIsSnapshot(t *testing.T) {
	rc := NewRunContext()
	meta := map[string]any{"k": "v"}
	rc.Record("A", ContextEntry{OutputPath: "a", Metadata: meta})

	view := rc.View()
	rc.Record("B", ContextEntry{OutputPath: "b"})
	meta["k"] = "changed"

	if view.Has("B") {
		t.Error("snapshot saw an entry recorded after it was taken")
	}
	entry, _ := view.Get("A")
	if entry.Metadata["k"] != "v" {
		t.Errorf("snapshot metadata changed: %v", entry.Metadata)
	}
	entry.Metadata["k"] = "mutated"
	again, _ := view.Get("A")
	if again.Metadata["k"] != "v" {
		t.Error("mutating a returned entry leaked into the view")
	}

	if got := rc.View().TaskIDs(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("TaskIDs() = %v", got)
	}
	if _, ok := rc.View().OutputPath("missing"); ok {
		t.Error("OutputPath(missing) should be false")
	}
}
