package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/adrg/internal/config"
	"github.com/aristath/adrg/internal/scheduler"
)

func TestPreflight(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *config.PipelineConfig)
		skips    map[string]bool
		fill     bool
		wantErrs []string
	}{
		{
			name: "complete config",
		},
		{
			name:     "missing define file",
			mutate:   func(cfg *config.PipelineConfig) { cfg.SDTMMedraVersion.Define = "inputs/nope.xml" },
			wantErrs: []string{"sdtm_medra_version.define:"},
		},
		{
			name:   "missing define file is fine when skipped",
			mutate: func(cfg *config.PipelineConfig) { cfg.SDTMMedraVersion.Define = "inputs/nope.xml" },
			skips:  map[string]bool{TaskExtractMetadata: true},
		},
		{
			name: "several problems reported together",
			mutate: func(cfg *config.PipelineConfig) {
				cfg.ProtocolRetrieve.Out = ""
				cfg.VarFilter.Folder = ""
				cfg.RenvToTable.Renv = ""
			},
			wantErrs: []string{
				"protocol_retrieve.out is required",
				"var_filter: one of folder or file is required",
				"renv_to_table.renv is required",
			},
		},
		{
			name: "invalid max pages",
			mutate: func(cfg *config.PipelineConfig) {
				zero := 0
				cfg.ProtocolRetrieve.MaxPages = &zero
			},
			wantErrs: []string{"protocol_retrieve.max_pages must be positive"},
		},
		{
			name:     "skipped producer without previous output",
			skips:    map[string]bool{TaskAnalyzeTLF: true},
			wantErrs: []string{"analyze_tlf_scripts is skipped but its previous output"},
		},
		{
			name:     "missing template",
			mutate:   func(cfg *config.PipelineConfig) { cfg.Template.Path = "inputs/missing.md" },
			wantErrs: []string{"template.path:"},
		},
		{
			name: "broken collaborator entry",
			mutate: func(cfg *config.PipelineConfig) {
				cfg.Collaborators[config.StepVarFilter] = config.CollaboratorConfig{Type: "script"}
			},
			wantErrs: []string{"collaborators.var_filter: script collaborator requires a command"},
		},
		{
			name: "missing script file",
			mutate: func(cfg *config.PipelineConfig) {
				os.Remove(filepath.Join(cfg.Root, "var_filter", "main.py"))
			},
			wantErrs: []string{filepath.Join("var_filter", "main.py") + " does not exist"},
		},
		{
			name: "missing script file is fine when skipped",
			mutate: func(cfg *config.PipelineConfig) {
				os.Remove(filepath.Join(cfg.Root, "var_filter", "main.py"))
			},
			skips: map[string]bool{TaskAnalyzeTLF: true, TaskExtractADaMInfo: true},
		},
		{
			name: "absolute script path",
			mutate: func(cfg *config.PipelineConfig) {
				cfg.Collaborators[config.StepVarFilter] = config.CollaboratorConfig{
					Type: "script", Command: "python3", Args: []string{filepath.Join(cfg.Root, "nowhere", "main.py")},
				}
			},
			wantErrs: []string{"nowhere"},
		},
		{
			name: "inline script is not checked",
			mutate: func(cfg *config.PipelineConfig) {
				cfg.Collaborators[config.StepVarFilter] = config.CollaboratorConfig{
					Type: "script", Command: "sh", Args: []string{"-c", "echo ok"},
				}
			},
		},
		{
			name:   "question filler entry ignored unless requested",
			mutate: func(cfg *config.PipelineConfig) { delete(cfg.Collaborators, config.StepQuestionFiller) },
		},
		{
			name:     "question filler entry checked when requested",
			mutate:   func(cfg *config.PipelineConfig) { delete(cfg.Collaborators, config.StepQuestionFiller) },
			fill:     true,
			wantErrs: []string{"collaborators.question_filler is not configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := Preflight(cfg, tt.skips, tt.fill)
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var cfgErr *scheduler.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want *scheduler.ConfigError", err)
			}
			if len(cfgErr.Issues) != len(tt.wantErrs) {
				t.Errorf("got %d issues, want %d: %v", len(cfgErr.Issues), len(tt.wantErrs), cfgErr.Issues)
			}
			for _, want := range tt.wantErrs {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestPreflight_SkippedProducerWithPreviousOutput(t *testing.T) {
	cfg := testConfig(t)
	if err := writeFile(cfg.Resolve(cfg.RenvToTable.Out), "Package,Version\n"); err != nil {
		t.Fatal(err)
	}

	if err := Preflight(cfg, map[string]bool{TaskExtractRenv: true}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Skipping the consumer too means nothing reads the old output.
	os.Remove(cfg.Resolve(cfg.RenvToTable.Out))
	if err := Preflight(cfg, map[string]bool{TaskExtractRenv: true, TaskPkgDescriptions: true}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
