package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/adrg/internal/collaborator"
	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/scheduler"
)

// Preflight checks that every task that will run has the config keys and
// source files it needs. All problems are collected into one
// *scheduler.ConfigError so the user can fix them in a single pass.
func Preflight(cfg *config.PipelineConfig, skips map[string]bool, fillQuestions bool) error {
	p := &preflight{cfg: cfg, errs: &scheduler.ConfigError{}}
	runs := func(taskID string) bool { return !skips[taskID] }

	if runs(TaskExtractMetadata) {
		c := cfg.SDTMMedraVersion
		p.source(config.StepStandards, "define", c.Define)
		p.required(config.StepStandards, "out", c.Out)
	}
	if runs(TaskExtractProtocol) {
		c := cfg.ProtocolRetrieve
		p.source(config.StepProtocol, "protocol", c.Protocol)
		p.required(config.StepProtocol, "out", c.Out)
		if c.MaxPages != nil && *c.MaxPages <= 0 {
			p.errs.Add("%s.max_pages must be positive, got %d", config.StepProtocol, *c.MaxPages)
		}
	}
	if runs(TaskAnalyzeTLF) {
		c := cfg.VarFilter
		switch {
		case c.Folder != "":
			p.source(config.StepVarFilter, "folder", c.Folder)
		case c.File != "":
			p.source(config.StepVarFilter, "file", c.File)
		default:
			p.errs.Add("%s: one of folder or file is required", config.StepVarFilter)
		}
		p.required(config.StepVarFilter, "out", c.Out)
	}
	if runs(TaskExtractADaMInfo) {
		c := cfg.ADaMInfo
		p.source(config.StepADaMInfo, "spec", c.Spec)
		p.required(config.StepADaMInfo, "out", c.Out)
		p.required(config.StepADaMInfo, "deps_out", c.DepsOut)
		if !runs(TaskAnalyzeTLF) {
			p.fallback(TaskAnalyzeTLF, config.StepVarFilter, cfg.VarFilter.Out)
		}
	}
	if runs(TaskAnalyzeADaM) {
		c := cfg.ADaMScriptsAnalyzer
		p.source(config.StepADaMScripts, "scripts_dir", c.ScriptsDir)
		p.required(config.StepADaMScripts, "out", c.Out)
		if c.Spec != "" {
			p.source(config.StepADaMScripts, "spec", c.Spec)
		}
	}
	if runs(TaskExtractRenv) {
		c := cfg.RenvToTable
		p.source(config.StepRenv, "renv", c.Renv)
		p.required(config.StepRenv, "out", c.Out)
	}
	if runs(TaskPkgDescriptions) {
		p.required(config.StepPkgDescriber, "out", cfg.PkgDescriber.Out)
		if !runs(TaskExtractRenv) {
			p.fallback(TaskExtractRenv, config.StepRenv, cfg.RenvToTable.Out)
		}
	}

	// Assembly is never skippable from the command line.
	p.source("template", "path", cfg.Template.Path)
	p.required("template", "output", cfg.Template.Output)

	if fillQuestions && runs(TaskAnswerQuestions) {
		p.required(config.StepQuestionFiller, "model", cfg.QuestionFiller.Model)
	}

	for _, taskID := range externalTasks() {
		step := stepOf[taskID]
		if !runs(taskID) || (taskID == TaskAnswerQuestions && !fillQuestions) {
			continue
		}
		p.collaborator(step)
	}

	return p.errs.ErrOrNil()
}

type preflight struct {
	cfg  *config.PipelineConfig
	errs *scheduler.ConfigError
}

func (p *preflight) required(section, key, value string) bool {
	if value == "" {
		p.errs.Add("%s.%s is required", section, key)
		return false
	}
	return true
}

func (p *preflight) source(section, key, value string) {
	if !p.required(section, key, value) {
		return
	}
	path := p.cfg.Resolve(value)
	if _, err := os.Stat(path); err != nil {
		p.errs.Add("%s.%s: %s does not exist", section, key, path)
	}
}

// fallback checks the configured output of a skipped producer, which its
// consumer reads in place of the producer's fresh output.
func (p *preflight) fallback(skipped, section, value string) {
	if !p.required(section, "out", value) {
		return
	}
	path := p.cfg.Resolve(value)
	if _, err := os.Stat(path); err != nil {
		p.errs.Add("%s is skipped but its previous output %s does not exist", skipped, path)
	}
}

func (p *preflight) collaborator(step string) {
	entry, ok := p.cfg.Collaborators[step]
	if !ok {
		p.errs.Add("collaborators.%s is not configured", step)
		return
	}
	dir := workDir(p.cfg, entry)
	_, err := collaborator.New(collaborator.Config{
		Type:    entry.Type,
		Command: entry.Command,
		Args:    entry.Args,
		WorkDir: dir,
	}, nil)
	if err != nil {
		p.errs.Add("collaborators.%s: %v", step, err)
		return
	}
	if entry.Type != "script" {
		return
	}
	if script := scriptArg(entry.Args); script != "" {
		if !filepath.IsAbs(script) {
			script = filepath.Join(dir, script)
		}
		if _, err := os.Stat(script); err != nil {
			p.errs.Add("collaborators.%s: script %s does not exist (scripts resolve against root, currently %s)", step, script, p.cfg.Root)
		}
	}
}

var scriptExts = map[string]bool{".py": true, ".r": true, ".sh": true}

// scriptArg returns the first argument naming a script file, or "" when the
// command runs inline code.
func scriptArg(args []string) string {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if scriptExts[strings.ToLower(filepath.Ext(a))] {
			return a
		}
	}
	return ""
}
