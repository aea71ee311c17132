package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

const projectJSON = `{
  "sdtm_medra_version": {"define": "data/define.xml", "out": "out/standards.csv"},
  "protocol_retrieve": {"protocol": "docs/protocol.pdf", "out": "out/protocol.md", "model": "gpt-4o", "max_pages": 40},
  "var_filter": {"folder": "tlf", "out": "out/var_filter.csv"},
  "adam_info": {"spec": "specs/adam.xlsx", "out": "out/vars.csv", "deps_out": "out/deps.csv"},
  "adam_scripts_analyzer": {"scripts_dir": "adam", "out": "out/programs.csv"},
  "renv_to_table": {"renv": "renv.lock", "out": "out/pkgs.csv"},
  "pkg_describer": {"out": "out/pkg_desc.csv", "no_llm": true},
  "template": {"path": "templates/adrg.md", "output": "out/adrg.md"},
  "collaborators": {
    "pkg_describer": {"type": "script", "args": ["tools/describe.R"]}
  }
}`

const globalYAML = `
question_filler:
  model: gpt-4.1
agents:
  assembly:
    name: Custom Assembler
collaborators:
  var_filter:
    type: script
    command: uv
    args: [run, var_filter/main.py]
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		global  string
		gdata   string
		project string
		pdata   string
		check   func(t *testing.T, cfg *PipelineConfig, dir string)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *PipelineConfig, dir string) {
				if got := len(cfg.Collaborators); got != 8 {
					t.Errorf("collaborators count = %d, want 8", got)
				}
				if cfg.QuestionFiller.Model != "gpt-4o-mini" {
					t.Errorf("question model = %q", cfg.QuestionFiller.Model)
				}
				if cfg.Root != "" {
					t.Errorf("root = %q, want empty", cfg.Root)
				}
			},
		},
		{
			name:    "Project JSON - fills sections, root defaults to its directory",
			project: "pipeline_config.json",
			pdata:   projectJSON,
			check: func(t *testing.T, cfg *PipelineConfig, dir string) {
				if cfg.Root != dir {
					t.Errorf("root = %q, want %q", cfg.Root, dir)
				}
				if cfg.ProtocolRetrieve.MaxPages == nil || *cfg.ProtocolRetrieve.MaxPages != 40 {
					t.Errorf("max_pages = %v", cfg.ProtocolRetrieve.MaxPages)
				}
				if !cfg.PkgDescriber.NoLLM {
					t.Error("no_llm not loaded")
				}
				pd := cfg.Collaborators[StepPkgDescriber]
				if pd.Args[0] != "tools/describe.R" || pd.Command != "" {
					t.Errorf("pkg_describer entry should be replaced whole, got %+v", pd)
				}
				if cfg.Collaborators[StepRenv].Type != "renv" {
					t.Error("untouched collaborator defaults must survive")
				}
				if cfg.QuestionFiller.Model != "gpt-4o-mini" {
					t.Error("unset sections keep defaults")
				}
			},
		},
		{
			name:    "Global YAML then project JSON - project wins",
			global:  "config.yaml",
			gdata:   globalYAML,
			project: "pipeline_config.json",
			pdata:   `{"question_filler": {"model": "o3"}, "root": "repo"}`,
			check: func(t *testing.T, cfg *PipelineConfig, dir string) {
				if cfg.QuestionFiller.Model != "o3" {
					t.Errorf("question model = %q, want o3", cfg.QuestionFiller.Model)
				}
				if cfg.Agents["assembly"].Name != "Custom Assembler" {
					t.Errorf("agents = %v", cfg.Agents)
				}
				vf := cfg.Collaborators[StepVarFilter]
				if vf.Command != "uv" || len(vf.Args) != 2 {
					t.Errorf("var_filter = %+v", vf)
				}
				if cfg.Root != filepath.Join(dir, "repo") {
					t.Errorf("relative root should anchor at config dir, got %q", cfg.Root)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.global != "" {
				globalPath = writeConfig(t, tmpDir, tt.global, tt.gdata)
			}
			projectPath := ""
			if tt.project != "" {
				projectPath = writeConfig(t, tmpDir, tt.project, tt.pdata)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg, tmpDir)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "json", file: "bad.json", content: "{invalid json"},
		{name: "yaml", file: "bad.yaml", content: "template: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.file, tt.content)

			_, err := Load(path, "")
			if err == nil {
				t.Fatal("expected error for malformed config, got nil")
			}
			if !strings.Contains(err.Error(), "loading global config") || !strings.Contains(err.Error(), tt.file) {
				t.Errorf("error should name the layer and file: %v", err)
			}
		})
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.yaml", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if len(cfg.Collaborators) != 8 {
		t.Errorf("collaborators count = %d, want 8", len(cfg.Collaborators))
	}
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		root, path, want string
	}{
		{root: "/repo", path: "out/adrg.md", want: "/repo/out/adrg.md"},
		{root: "/repo", path: "/abs/file.csv", want: "/abs/file.csv"},
		{root: "/repo", path: "~/data/define.xml", want: filepath.Join(home, "data/define.xml")},
		{root: "/repo", path: "../sibling/x", want: "/sibling/x"},
		{root: "/repo", path: "", want: ""},
	}

	for _, tt := range tests {
		if got := ResolvePath(tt.root, tt.path); got != tt.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}

	cfg := &PipelineConfig{Root: "/study"}
	if got := cfg.Resolve("renv.lock"); got != "/study/renv.lock" {
		t.Errorf("Resolve = %q", got)
	}
}
