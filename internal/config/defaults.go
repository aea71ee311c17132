package config

// DefaultConfig returns the built-in agents and collaborators. Step paths are
// left empty; they come from the pipeline config file.
func DefaultConfig() *PipelineConfig {
	return &PipelineConfig{
		QuestionFiller: QuestionFillerConfig{
			Model: "gpt-4o-mini",
		},
		Agents: map[string]AgentConfig{},
		Collaborators: map[string]CollaboratorConfig{
			StepStandards: {
				Type: "define",
			},
			StepProtocol: {
				Type:    "script",
				Command: "python3",
				Args:    []string{"protocol_retrieve/main.py"},
			},
			StepVarFilter: {
				Type:    "script",
				Command: "python3",
				Args:    []string{"var_filter/main.py"},
			},
			StepADaMInfo: {
				Type:    "script",
				Command: "python3",
				Args:    []string{"adam_info/main.py"},
			},
			StepADaMScripts: {
				Type:    "script",
				Command: "python3",
				Args:    []string{"adam_scripts_analyzer/main.py"},
			},
			StepRenv: {
				Type: "renv",
			},
			StepPkgDescriber: {
				Type:    "script",
				Command: "Rscript",
				Args:    []string{"pkg_describer/main.r"},
			},
			StepQuestionFiller: {
				Type:    "script",
				Command: "python3",
				Args:    []string{"adrg_question_filler/main.py"},
			},
		},
	}
}
