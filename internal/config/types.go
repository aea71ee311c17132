package config

// StandardsConfig configures SDTM/MedDRA version extraction from define.xml.
type StandardsConfig struct {
	Define string `json:"define" yaml:"define"`
	Out    string `json:"out" yaml:"out"`
}

// ProtocolConfig configures protocol PDF summarization.
type ProtocolConfig struct {
	Protocol string `json:"protocol" yaml:"protocol"`
	Out      string `json:"out" yaml:"out"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	MaxPages *int   `json:"max_pages,omitempty" yaml:"max_pages,omitempty"` // nil means no limit
}

// VarFilterConfig configures TLF script analysis. Folder wins over File.
type VarFilterConfig struct {
	Folder string `json:"folder,omitempty" yaml:"folder,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	Out    string `json:"out" yaml:"out"`
}

// ADaMInfoConfig configures variable/dependency extraction from the ADaM spec.
type ADaMInfoConfig struct {
	Spec         string `json:"spec" yaml:"spec"`
	Out          string `json:"out" yaml:"out"`
	DepsOut      string `json:"deps_out" yaml:"deps_out"`
	InventoryOut string `json:"inventory_out,omitempty" yaml:"inventory_out,omitempty"`
}

// ADaMScriptsConfig configures ADaM program analysis.
type ADaMScriptsConfig struct {
	ScriptsDir string `json:"scripts_dir" yaml:"scripts_dir"`
	Out        string `json:"out" yaml:"out"`
	Spec       string `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// RenvConfig configures renv.lock conversion.
type RenvConfig struct {
	Renv string `json:"renv" yaml:"renv"`
	Out  string `json:"out" yaml:"out"`
}

// PkgDescriberConfig configures R package description generation.
type PkgDescriberConfig struct {
	Out   string `json:"out" yaml:"out"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	NoLLM bool   `json:"no_llm,omitempty" yaml:"no_llm,omitempty"`
}

// TemplateConfig names the ADRG template and the assembled document.
type TemplateConfig struct {
	Path   string `json:"path" yaml:"path"`
	Output string `json:"output" yaml:"output"`
}

// QuestionFillerConfig configures the optional question answering step.
type QuestionFillerConfig struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// AgentConfig overrides the metadata of a built-in agent.
type AgentConfig struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Role      string   `json:"role,omitempty" yaml:"role,omitempty"`
	Goal      string   `json:"goal,omitempty" yaml:"goal,omitempty"`
	Backstory string   `json:"backstory,omitempty" yaml:"backstory,omitempty"`
	Tools     []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// CollaboratorConfig defines how one external step is invoked.
type CollaboratorConfig struct {
	Type    string   `json:"type" yaml:"type"`                             // "script", "renv" or "define"
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`   // Executable for "script"
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`         // Leading args, usually the script path
	WorkDir string   `json:"work_dir,omitempty" yaml:"work_dir,omitempty"` // Defaults to Root
}

// PipelineConfig is the top-level configuration. Section names match the
// external step they configure.
type PipelineConfig struct {
	Root string `json:"root,omitempty" yaml:"root,omitempty"` // Base for relative paths

	SDTMMedraVersion    StandardsConfig      `json:"sdtm_medra_version" yaml:"sdtm_medra_version"`
	ProtocolRetrieve    ProtocolConfig       `json:"protocol_retrieve" yaml:"protocol_retrieve"`
	VarFilter           VarFilterConfig      `json:"var_filter" yaml:"var_filter"`
	ADaMInfo            ADaMInfoConfig       `json:"adam_info" yaml:"adam_info"`
	ADaMScriptsAnalyzer ADaMScriptsConfig    `json:"adam_scripts_analyzer" yaml:"adam_scripts_analyzer"`
	RenvToTable         RenvConfig           `json:"renv_to_table" yaml:"renv_to_table"`
	PkgDescriber        PkgDescriberConfig   `json:"pkg_describer" yaml:"pkg_describer"`
	Template            TemplateConfig       `json:"template" yaml:"template"`
	QuestionFiller      QuestionFillerConfig `json:"question_filler" yaml:"question_filler"`

	Agents        map[string]AgentConfig        `json:"agents,omitempty" yaml:"agents,omitempty"`
	Collaborators map[string]CollaboratorConfig `json:"collaborators" yaml:"collaborators"`
}

// Step names, shared by config sections and collaborator entries.
const (
	StepStandards      = "sdtm_medra_version"
	StepProtocol       = "protocol_retrieve"
	StepVarFilter      = "var_filter"
	StepADaMInfo       = "adam_info"
	StepADaMScripts    = "adam_scripts_analyzer"
	StepRenv           = "renv_to_table"
	StepPkgDescriber   = "pkg_describer"
	StepQuestionFiller = "question_filler"
)
