package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aristath/adrg/internal/collaborator"
	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/scheduler"
)

type builder struct {
	opts Options
	cfg  *config.PipelineConfig
}

// resolveOutput returns the output of taskID from the run context, or the
// configured path when the task produced nothing (it was skipped).
func (b *builder) resolveOutput(view scheduler.ContextView, taskID, configured string) string {
	if p, ok := view.OutputPath(taskID); ok {
		return p
	}
	return b.cfg.Resolve(configured)
}

// run invokes the collaborator for taskID's step.
func (b *builder) run(ctx context.Context, taskID string, flags []collaborator.Flag, output string) (string, error) {
	step := stepOf[taskID]
	c, ok := b.opts.Collaborators[step]
	if !ok {
		return "", fmt.Errorf("no collaborator configured for step %q", step)
	}

	in := collaborator.Inputs{Step: step, Flags: flags, Output: output}
	if b.opts.Progress != nil {
		in.Progress = func(line string) { b.opts.Progress(taskID, line) }
	}
	return c.Run(ctx, in)
}

func flag(name, value string) collaborator.Flag {
	return collaborator.Flag{Name: name, Value: value}
}

func (b *builder) metadataTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.SDTMMedraVersion
		out := b.cfg.Resolve(c.Out)

		path, err := b.run(ctx, TaskExtractMetadata, []collaborator.Flag{
			flag("--define", b.cfg.Resolve(c.Define)),
			flag("--out", out),
		}, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskExtractMetadata,
		Description: "Extract SDTM/MedDRA versions from define.xml",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
	}
}

func (b *builder) protocolTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.ProtocolRetrieve
		out := b.cfg.Resolve(c.Out)

		flags := []collaborator.Flag{
			flag("--protocol", b.cfg.Resolve(c.Protocol)),
			flag("--out", out),
		}
		if c.Model != "" {
			flags = append(flags, flag("--model", c.Model))
		}
		if c.MaxPages != nil {
			flags = append(flags, flag("--max-pages", strconv.Itoa(*c.MaxPages)))
		}

		path, err := b.run(ctx, TaskExtractProtocol, flags, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskExtractProtocol,
		Description: "Extract protocol information from PDF",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
	}
}

func (b *builder) varFilterTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.VarFilter
		out := b.cfg.Resolve(c.Out)

		var flags []collaborator.Flag
		switch {
		case c.Folder != "":
			flags = append(flags, flag("--folder", b.cfg.Resolve(c.Folder)))
		case c.File != "":
			flags = append(flags, flag("--file", b.cfg.Resolve(c.File)))
		}
		if c.Model != "" {
			flags = append(flags, flag("--model", c.Model))
		}
		flags = append(flags, flag("--out", out))

		path, err := b.run(ctx, TaskAnalyzeTLF, flags, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskAnalyzeTLF,
		Description: "Analyze TLF R scripts for variables and outputs",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
	}
}

func (b *builder) adamInfoTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.ADaMInfo
		out := b.cfg.Resolve(c.Out)
		deps := b.cfg.Resolve(c.DepsOut)

		flags := []collaborator.Flag{
			flag("--spec", b.cfg.Resolve(c.Spec)),
			flag("--input", b.resolveOutput(view, TaskAnalyzeTLF, b.cfg.VarFilter.Out)),
			flag("--out", out),
			flag("--deps-out", deps),
		}
		metadata := map[string]any{"deps_path": deps}
		if c.InventoryOut != "" {
			inventory := b.cfg.Resolve(c.InventoryOut)
			flags = append(flags, flag("--inventory-out", inventory))
			metadata["inventory_path"] = inventory
		}

		path, err := b.run(ctx, TaskExtractADaMInfo, flags, out)
		return scheduler.Output{Path: path, Metadata: metadata}, err
	}

	return &scheduler.Task{
		ID:          TaskExtractADaMInfo,
		Description: "Extract ADaM variable descriptions and dataset dependencies",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
		DependsOn:   []string{TaskAnalyzeTLF},
	}
}

func (b *builder) adamScriptsTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.ADaMScriptsAnalyzer
		out := b.cfg.Resolve(c.Out)

		flags := []collaborator.Flag{
			flag("--scripts-dir", b.cfg.Resolve(c.ScriptsDir)),
			flag("--out", out),
		}
		if c.Spec != "" {
			flags = append(flags, flag("--spec", b.cfg.Resolve(c.Spec)))
		}

		path, err := b.run(ctx, TaskAnalyzeADaM, flags, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskAnalyzeADaM,
		Description: "Analyze ADaM R scripts for programs and functions",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
	}
}

func (b *builder) renvTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.RenvToTable
		out := b.cfg.Resolve(c.Out)

		path, err := b.run(ctx, TaskExtractRenv, []collaborator.Flag{
			flag("--renv", b.cfg.Resolve(c.Renv)),
			flag("--out", out),
		}, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskExtractRenv,
		Description: "Extract R package versions from renv.lock",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
	}
}

func (b *builder) pkgDescriberTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		c := b.cfg.PkgDescriber
		out := b.cfg.Resolve(c.Out)

		flags := []collaborator.Flag{
			flag("--input", b.resolveOutput(view, TaskExtractRenv, b.cfg.RenvToTable.Out)),
			flag("--output", out),
		}
		if c.Model != "" {
			flags = append(flags, flag("--model", c.Model))
		}
		if c.NoLLM {
			flags = append(flags, flag("--no-llm", ""))
		}

		path, err := b.run(ctx, TaskPkgDescriptions, flags, out)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskPkgDescriptions,
		Description: "Generate R package descriptions",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
		DependsOn:   []string{TaskExtractRenv},
	}
}

func (b *builder) questionTask(agent *scheduler.Agent) *scheduler.Task {
	action := func(ctx context.Context, view scheduler.ContextView) (scheduler.Output, error) {
		doc := b.resolveOutput(view, TaskAssembleDocument, b.cfg.Template.Output)

		// The filler rewrites the assembled document in place.
		path, err := b.run(ctx, TaskAnswerQuestions, []collaborator.Flag{
			flag("--config", b.opts.ConfigPath),
			flag("--template", doc),
			flag("--out", doc),
			flag("--model", b.cfg.QuestionFiller.Model),
		}, doc)
		return scheduler.Output{Path: path}, err
	}

	return &scheduler.Task{
		ID:          TaskAnswerQuestions,
		Description: "Answer yes/no questions using protocol, ADaM specs, and R scripts data",
		Agent:       agent,
		Action:      scheduler.ActionFunc(action),
		DependsOn: []string{
			TaskAssembleDocument,
			TaskExtractProtocol,
			TaskExtractADaMInfo,
			TaskAnalyzeADaM,
		},
		Skippable: true,
	}
}
