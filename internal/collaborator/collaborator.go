package collaborator

import (
	"context"
	"fmt"
)

// Collaborator produces one output file from a set of inputs. The engine only
// cares about the returned path; the file's content belongs to the step.
type Collaborator interface {
	// Run produces in.Output and returns its path.
	Run(ctx context.Context, in Inputs) (string, error)
}

// Func adapts a plain function to the Collaborator interface.
type Func func(ctx context.Context, in Inputs) (string, error)

func (f Func) Run(ctx context.Context, in Inputs) (string, error) {
	return f(ctx, in)
}

// Flag is one command-line style input. An empty Value marks a boolean switch.
type Flag struct {
	Name  string
	Value string
}

// Inputs describes one invocation of an external step.
type Inputs struct {
	Step     string            // Config section name, e.g. "renv_to_table"
	Flags    []Flag            // In the order they are passed
	Output   string            // Resolved output path the step must produce
	Progress func(line string) // Optional, receives each line the step prints
}

// Get returns the value of the first flag called name.
func (in Inputs) Get(name string) (string, bool) {
	for _, f := range in.Flags {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Args flattens the flags into an argument list.
func (in Inputs) Args() []string {
	args := make([]string, 0, len(in.Flags)*2)
	for _, f := range in.Flags {
		args = append(args, f.Name)
		if f.Value != "" {
			args = append(args, f.Value)
		}
	}
	return args
}

func (in Inputs) progress(line string) {
	if in.Progress != nil {
		in.Progress(line)
	}
}

// Config defines how one step is invoked.
type Config struct {
	Type    string   // "script", "renv" or "define"
	Command string   // Executable for "script"
	Args    []string // Leading arguments, e.g. the script path
	WorkDir string
}

// New creates a collaborator for cfg. The ProcessManager is optional; when nil,
// subprocesses are not tracked.
func New(cfg Config, pm *ProcessManager) (Collaborator, error) {
	switch cfg.Type {
	case "script":
		s, err := NewScript(cfg, pm)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "renv":
		return RenvToTable{}, nil
	case "define":
		return DefineVersions{}, nil
	default:
		return nil, fmt.Errorf("unknown collaborator type: %q", cfg.Type)
	}
}
