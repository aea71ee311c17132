package collaborator

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Script runs an external program once per invocation:
//
//	command args... --flag value ... --switch
//
// The step succeeds only if the program exits zero and the output file exists
// afterwards.
type Script struct {
	command string
	args    []string
	workDir string
	procMgr *ProcessManager
}

// NewScript creates a Script from cfg. If cfg.WorkDir is empty the current
// directory is used.
func NewScript(cfg Config, pm *ProcessManager) (*Script, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("script collaborator requires a command")
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return &Script{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		workDir: workDir,
		procMgr: pm,
	}, nil
}

// Run executes the program and verifies in.Output was produced.
func (s *Script) Run(ctx context.Context, in Inputs) (string, error) {
	args := s.buildArgs(in)

	cmd := newCommand(ctx, s.command, args...)
	cmd.Dir = s.workDir

	_, _, err := streamCommand(ctx, cmd, s.procMgr, in.Progress)
	if err != nil {
		return "", fmt.Errorf("%s: %w", in.Step, err)
	}

	if in.Output == "" {
		return "", nil
	}
	if _, err := os.Stat(in.Output); err != nil {
		return "", fmt.Errorf("%s: expected output %s was not produced: %w", in.Step, in.Output, err)
	}
	return in.Output, nil
}

// buildArgs constructs the command line for in.
func (s *Script) buildArgs(in Inputs) []string {
	args := append([]string(nil), s.args...)
	return append(args, in.Args()...)
}

// String renders the command line for logs.
func (s *Script) String() string {
	return strings.Join(append([]string{s.command}, s.args...), " ")
}
