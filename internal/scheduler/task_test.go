package scheduler

import "testing"

func TestTaskCanExecute(t *testing.T) {
	tests := []struct {
		name     string
		deps     []string
		resolved map[string]bool
		want     bool
	}{
		{name: "no dependencies", deps: nil, resolved: map[string]bool{}, want: true},
		{name: "all resolved", deps: []string{"A", "B"}, resolved: map[string]bool{"A": true, "B": true}, want: true},
		{name: "one missing", deps: []string{"A", "B"}, resolved: map[string]bool{"A": true}, want: false},
		{name: "nil snapshot", deps: []string{"A"}, resolved: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{ID: "T", DependsOn: tt.deps}
			if got := task.CanExecute(tt.resolved); got != tt.want {
				t.Errorf("CanExecute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskStatusString(t *testing.T) {
	tests := map[TaskStatus]string{
		TaskPending:    "pending",
		TaskRunning:    "running",
		TaskCompleted:  "completed",
		TaskFailed:     "failed",
		TaskSkipped:    "skipped",
		TaskStatus(42): "status(42)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("TaskStatus(%d).String() = %q, want %q", int(status), got, want)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	for _, s := range []TaskStatus{TaskCompleted, TaskFailed, TaskSkipped} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskPending, TaskRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
