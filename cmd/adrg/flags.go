package main

import (
	"flag"
	"io"

	"github.com/aristath/adrg/internal/pipeline"
)

const defaultConfigPath = "config/pipeline_config.json"

type options struct {
	configPath    string
	ledgerPath    string
	initConfig    string
	history       int
	showRun       string
	skips         map[string]bool
	fillQuestions bool
	verbose       bool
	tui           bool
	interactive   bool
}

// skipFlag binds a -skip-* flag to the task it skips.
type skipFlag struct {
	name   string
	taskID string
	usage  string
}

var skipFlags = []skipFlag{
	{"skip-sdtm", pipeline.TaskExtractMetadata, "Skip SDTM/MedDRA extraction"},
	{"skip-protocol", pipeline.TaskExtractProtocol, "Skip protocol extraction"},
	{"skip-var-filter", pipeline.TaskAnalyzeTLF, "Skip TLF script analysis"},
	{"skip-adam-info", pipeline.TaskExtractADaMInfo, "Skip ADaM info extraction"},
	{"skip-adam-scripts", pipeline.TaskAnalyzeADaM, "Skip ADaM scripts analysis"},
	{"skip-renv", pipeline.TaskExtractRenv, "Skip renv.lock processing"},
	{"skip-pkg-describer", pipeline.TaskPkgDescriptions, "Skip package description generation"},
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("adrg", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{skips: make(map[string]bool)}
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to pipeline configuration (JSON or YAML)")
	fs.BoolVar(&opts.fillQuestions, "fill-questions", false, "Fill yes/no questions in template")
	fs.BoolVar(&opts.verbose, "verbose", true, "Enable verbose output")
	fs.BoolVar(&opts.tui, "tui", false, "Show live progress in a terminal UI")
	fs.BoolVar(&opts.interactive, "interactive", false, "Choose steps to skip before the run starts")
	fs.StringVar(&opts.ledgerPath, "ledger", "", "Record runs in this SQLite database")
	fs.IntVar(&opts.history, "history", 0, "List the N most recent runs from -ledger and exit")
	fs.StringVar(&opts.showRun, "run", "", "Show the task results of one run from -ledger and exit")
	fs.StringVar(&opts.initConfig, "init-config", "", "Write a config file with the built-in defaults to this path and exit")

	bound := make([]*bool, len(skipFlags))
	for i, sf := range skipFlags {
		bound[i] = fs.Bool(sf.name, false, sf.usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for i, sf := range skipFlags {
		if *bound[i] {
			opts.skips[sf.taskID] = true
		}
	}
	return opts, nil
}
