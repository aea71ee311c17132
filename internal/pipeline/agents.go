package pipeline

import (
	"log"
	"slices"

	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/scheduler"
)

// Agent keys, usable in the "agents" config section.
const (
	AgentDefineXML    = "definexml"
	AgentProtocol     = "protocol"
	AgentCodeAnalysis = "code_analysis"
	AgentADaMSpec     = "adam_spec"
	AgentPackageDoc   = "package_doc"
	AgentQuestion     = "question"
	AgentAssembly     = "assembly"
)

func defaultAgents() map[string]scheduler.Agent {
	return map[string]scheduler.Agent{
		AgentDefineXML: {
			Name: "Definexml Extraction Agent",
			Role: "SDTM/MedDRA Metadata Specialist",
			Goal: "Extract study standards and metadata from define.xml files",
			Backstory: "You are an expert in clinical trial data standards (SDTM, MedDRA, CDASH). " +
				"You excel at parsing XML files and extracting version information.",
			Tools: []string{"xml_parser", "define_xml_reader"},
		},
		AgentProtocol: {
			Name: "Protocol Analysis Agent",
			Role: "Clinical Protocol Analyst",
			Goal: "Extract and summarize protocol information from PDF documents",
			Backstory: "You are a clinical research expert who excels at reading protocol documents " +
				"and extracting key information like objectives, endpoints, and study design.",
			Tools: []string{"pdf_reader", "llm_summarizer"},
		},
		AgentCodeAnalysis: {
			Name: "Code Analysis Agent",
			Role: "R Programming Specialist",
			Goal: "Analyze R scripts to extract variables, outputs, and functions used",
			Backstory: "You are an expert R programmer who can analyze code to understand " +
				"data processing workflows, variable usage, and output generation.",
			Tools: []string{"r_script_parser", "function_extractor", "var_filter", "adam_scripts_analyzer"},
		},
		AgentADaMSpec: {
			Name: "ADaM Specification Agent",
			Role: "ADaM Standards Expert",
			Goal: "Process ADaM specification files to extract variables, dependencies, and inventory",
			Backstory: "You are an expert in CDISC ADaM standards and Excel data analysis. " +
				"You excel at processing specification sheets and understanding dataset relationships.",
			Tools: []string{"excel_reader", "variable_extractor", "dependency_analyzer"},
		},
		AgentPackageDoc: {
			Name: "Package Documentation Agent",
			Role: "R Package Documentation Specialist",
			Goal: "Document R packages and their versions used in the analysis",
			Backstory: "You are an expert in R package ecosystems and documentation. " +
				"You can parse renv.lock files and generate comprehensive package descriptions.",
			Tools: []string{"renv_parser", "package_describer", "cran_api"},
		},
		AgentQuestion: {
			Name: "Question Answering Agent",
			Role: "ADRG Question Specialist",
			Goal: "Answer yes/no questions in ADRG templates using protocol, ADaM specs, and R scripts",
			Backstory: "You are an expert at understanding clinical trial documentation requirements. " +
				"You can analyze protocol PDFs, ADaM specifications, R scripts, and data files " +
				"to answer regulatory questions accurately.",
			Tools: []string{"llm_qa", "data_context_builder", "template_parser", "protocol_reader", "spec_reader"},
		},
		AgentAssembly: {
			Name: "Document Assembly Agent",
			Role: "Document Integration Coordinator",
			Goal: "Assemble all components into a final ADRG document",
			Backstory: "You are a technical writer and document specialist who excels at " +
				"integrating multiple data sources into a cohesive regulatory document.",
			Tools: []string{"template_filler", "markdown_renderer", "csv_to_table_converter"},
		},
	}
}

// NewAgents creates the built-in agents with any configured overrides applied.
// Empty override fields keep the built-in value. A nil logger discards
// progress lines.
func NewAgents(overrides map[string]config.AgentConfig, verbose bool, logger *log.Logger) map[string]*scheduler.Agent {
	if logger == nil {
		logger = scheduler.DiscardLogger
	}

	agents := make(map[string]*scheduler.Agent)
	for key, a := range defaultAgents() {
		if o, ok := overrides[key]; ok {
			if o.Name != "" {
				a.Name = o.Name
			}
			if o.Role != "" {
				a.Role = o.Role
			}
			if o.Goal != "" {
				a.Goal = o.Goal
			}
			if o.Backstory != "" {
				a.Backstory = o.Backstory
			}
			if len(o.Tools) > 0 {
				a.Tools = slices.Clone(o.Tools)
			}
		}
		a.Verbose = verbose
		a.Logger = logger
		agent := a
		agents[key] = &agent
	}
	return agents
}
