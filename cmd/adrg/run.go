package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/adrg/internal/collaborator"
	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/events"
	"github.com/aristath/adrg/internal/orchestrator"
	"github.com/aristath/adrg/internal/persistence"
	"github.com/aristath/adrg/internal/pipeline"
	"github.com/aristath/adrg/internal/scheduler"
	"github.com/aristath/adrg/internal/tui"
)

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	switch {
	case opts.initConfig != "":
		return initConfig(opts.initConfig, stdout, stderr)
	case opts.history > 0 || opts.showRun != "":
		return showHistory(ctx, opts, stdout, stderr)
	}

	if err := generate(ctx, opts, stdout); err != nil {
		fmt.Fprintf(stderr, "\n❌ %s\n\n", describeError(err))
		return 1
	}
	return 0
}

func initConfig(path string, stdout, stderr io.Writer) int {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(stderr, "Error: %s already exists\n", path)
		return 1
	}
	if err := config.Save(config.DefaultConfig(), path); err != nil {
		fmt.Fprintf(stderr, "Error writing config: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote default configuration to %s\n", path)
	return 0
}

func loadConfig(path string) (*config.PipelineConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	globalPath, err := config.DefaultGlobalPath()
	if err != nil {
		log.Printf("WARNING: global config skipped: %v", err)
		globalPath = ""
	}
	return config.Load(globalPath, path)
}

// generate runs the whole workflow and prints the results summary.
func generate(ctx context.Context, opts *options, stdout io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	// Scripts run from cfg.Root, so they need the config path in absolute form.
	configPath, err := filepath.Abs(opts.configPath)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if opts.interactive {
		sel := tui.Selection{FillQuestions: opts.fillQuestions}
		for id := range opts.skips {
			sel.Skips = append(sel.Skips, id)
		}
		if err := tui.NewSkipForm(skipChoices(), &sel).RunWithContext(ctx); err != nil {
			return fmt.Errorf("interactive setup: %w", err)
		}
		if !sel.Confirmed {
			return fmt.Errorf("workflow cancelled: %w", context.Canceled)
		}
		opts.skips = sel.SkipMap()
		opts.fillQuestions = sel.FillQuestions
	}

	if err := pipeline.Preflight(cfg, opts.skips, opts.fillQuestions); err != nil {
		return err
	}

	pm := collaborator.NewProcessManager()
	go func() {
		<-ctx.Done()
		if err := pm.KillAll(); err != nil {
			log.Printf("ERROR: killing subprocesses: %v", err)
		}
	}()

	collabs, err := pipeline.NewCollaborators(cfg, opts.skips, opts.fillQuestions, pm)
	if err != nil {
		return err
	}

	bus := events.NewEventBus()
	defer bus.Close()

	out := log.New(stdout, "", 0)
	verbose := opts.verbose && !opts.tui

	tasks, err := pipeline.Build(pipeline.Options{
		Config:        cfg,
		ConfigPath:    configPath,
		FillQuestions: opts.fillQuestions,
		Verbose:       verbose,
		Logger:        out,
		Collaborators: collabs,
		Progress: func(taskID, line string) {
			bus.Publish(events.TopicTask, events.TaskOutputEvent{ID: taskID, Line: line, Timestamp: time.Now()})
			if verbose {
				out.Printf("    │ %s", line)
			}
		},
	})
	if err != nil {
		return err
	}

	crewCfg := orchestrator.CrewConfig{Verbose: verbose, Logger: out, Bus: bus}
	if opts.ledgerPath != "" {
		store, err := persistence.NewSQLiteStore(ctx, opts.ledgerPath)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer store.Close()
		crewCfg.Recorder = store
	}

	crew, err := orchestrator.NewCrew(crewCfg, tasks)
	if err != nil {
		return err
	}

	var results map[string]scheduler.TaskResult
	if opts.tui {
		results, err = kickoffWithTUI(ctx, crew, bus, opts.skips)
	} else {
		results, err = crew.Kickoff(ctx, opts.skips)
	}

	printSummary(stdout, crew, results)
	return err
}

// kickoffWithTUI runs the crew in the background while the TUI owns the
// terminal. Quitting the TUI early cancels the run.
func kickoffWithTUI(ctx context.Context, crew *orchestrator.Crew, bus *events.EventBus, skips map[string]bool) (map[string]scheduler.TaskResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.New(bus), tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		results map[string]scheduler.TaskResult
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := crew.Kickoff(runCtx, skips)
		done <- outcome{results, err}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("WARNING: TUI exited with error: %v", err)
	}
	cancel()

	o := <-done
	return o.results, o.err
}

func skipChoices() []tui.SkipChoice {
	choices := make([]tui.SkipChoice, 0, len(skipFlags))
	for _, sf := range skipFlags {
		choices = append(choices, tui.SkipChoice{TaskID: sf.taskID, Label: sf.usage[len("Skip "):]})
	}
	return choices
}

// describeError picks the headline for a run-level error.
func describeError(err error) string {
	var (
		cfgErr    *scheduler.ConfigError
		stuckErr  *scheduler.StuckWorkflowError
		failedErr *scheduler.TaskFailedError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "Invalid configuration: " + err.Error()
	case errors.As(err, &stuckErr):
		return "Workflow stuck: " + strings.TrimPrefix(err.Error(), "workflow stuck: ")
	case errors.As(err, &failedErr):
		return "Workflow failed: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Workflow cancelled"
	default:
		return "Workflow failed: " + err.Error()
	}
}
