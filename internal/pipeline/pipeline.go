// Package pipeline wires the ADRG generation workflow: the agents, the tasks
// and how each task invokes its external step.
package pipeline

import (
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/aristath/adrg/internal/collaborator"
	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/scheduler"
)

// Task IDs.
const (
	TaskExtractMetadata  = "extract_metadata"
	TaskExtractProtocol  = "extract_protocol"
	TaskAnalyzeTLF       = "analyze_tlf_scripts"
	TaskExtractADaMInfo  = "extract_adam_info"
	TaskAnalyzeADaM      = "analyze_adam_scripts"
	TaskExtractRenv      = "extract_renv"
	TaskPkgDescriptions  = "generate_pkg_descriptions"
	TaskAssembleDocument = "assemble_document"
	TaskAnswerQuestions  = "answer_questions"
)

// stepOf maps each task backed by an external step to that step's name.
var stepOf = map[string]string{
	TaskExtractMetadata: config.StepStandards,
	TaskExtractProtocol: config.StepProtocol,
	TaskAnalyzeTLF:      config.StepVarFilter,
	TaskExtractADaMInfo: config.StepADaMInfo,
	TaskAnalyzeADaM:     config.StepADaMScripts,
	TaskExtractRenv:     config.StepRenv,
	TaskPkgDescriptions: config.StepPkgDescriber,
	TaskAnswerQuestions: config.StepQuestionFiller,
}

func externalTasks() []string {
	return slices.Sorted(maps.Keys(stepOf))
}

// Options configures Build.
type Options struct {
	Config        *config.PipelineConfig
	ConfigPath    string // Handed to the question filler, which reads the same file
	FillQuestions bool   // Append the optional answer_questions task
	Verbose       bool
	Logger        *log.Logger // Agent progress lines; nil discards them

	// Collaborators by step name. Steps without an entry fail when run.
	Collaborators map[string]collaborator.Collaborator

	// Progress receives each line an external step prints. Optional.
	Progress func(taskID, line string)
}

// Build creates the workflow tasks in scheduling order.
func Build(opts Options) ([]*scheduler.Task, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}

	b := &builder{opts: opts, cfg: opts.Config}
	agents := NewAgents(opts.Config.Agents, opts.Verbose, opts.Logger)

	tasks := []*scheduler.Task{
		b.metadataTask(agents[AgentDefineXML]),
		b.protocolTask(agents[AgentProtocol]),
		b.varFilterTask(agents[AgentCodeAnalysis]),
		b.adamInfoTask(agents[AgentADaMSpec]),
		b.adamScriptsTask(agents[AgentCodeAnalysis]),
		b.renvTask(agents[AgentPackageDoc]),
		b.pkgDescriberTask(agents[AgentPackageDoc]),
		b.assemblyTask(agents[AgentAssembly]),
	}
	if opts.FillQuestions {
		tasks = append(tasks, b.questionTask(agents[AgentQuestion]))
	}
	return tasks, nil
}

// NewCollaborators creates the collaborator for every step that will run.
// Steps whose task is skip-requested are not built, so a broken entry for a
// skipped step does not block the run.
func NewCollaborators(cfg *config.PipelineConfig, skips map[string]bool, fillQuestions bool, pm *collaborator.ProcessManager) (map[string]collaborator.Collaborator, error) {
	out := make(map[string]collaborator.Collaborator)
	for _, taskID := range externalTasks() {
		step := stepOf[taskID]
		if skips[taskID] || (taskID == TaskAnswerQuestions && !fillQuestions) {
			continue
		}

		entry, ok := cfg.Collaborators[step]
		if !ok {
			return nil, fmt.Errorf("no collaborator configured for step %q", step)
		}

		c, err := collaborator.New(collaborator.Config{
			Type:    entry.Type,
			Command: entry.Command,
			Args:    entry.Args,
			WorkDir: workDir(cfg, entry),
		}, pm)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step, err)
		}
		out[step] = c
	}
	return out, nil
}

func workDir(cfg *config.PipelineConfig, entry config.CollaboratorConfig) string {
	if entry.WorkDir == "" {
		return cfg.Root
	}
	return cfg.Resolve(entry.WorkDir)
}
