package collaborator

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestScriptBuildArgs(t *testing.T) {
	s, err := NewScript(Config{Command: "python", Args: []string{"tools/main.py"}, WorkDir: "/tmp"}, nil)
	if err != nil {
		t.Fatalf("NewScript failed: %v", err)
	}

	in := Inputs{
		Step: "pkg_describer",
		Flags: []Flag{
			{Name: "--input", Value: "pkgs.csv"},
			{Name: "--output", Value: "out.csv"},
			{Name: "--no-llm"},
		},
	}

	want := []string{"tools/main.py", "--input", "pkgs.csv", "--output", "out.csv", "--no-llm"}
	if got := s.buildArgs(in); !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs = %v, want %v", got, want)
	}
	if got := s.String(); got != "python tools/main.py" {
		t.Errorf("String = %q", got)
	}
}

func TestNewScriptRequiresCommand(t *testing.T) {
	if _, err := NewScript(Config{Type: "script"}, nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestScriptRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name:   "writes output",
			script: `echo "writing $2"; echo "a,b" > "$2"`,
		},
		{
			name:    "exit status",
			script:  `echo "boom" >&2; exit 2`,
			wantErr: "boom",
		},
		{
			name:    "output missing",
			script:  `echo "forgot to write"`,
			wantErr: "was not produced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(out)

			s, err := NewScript(Config{Command: "sh", Args: []string{"-c", tt.script, "step"}, WorkDir: dir}, nil)
			if err != nil {
				t.Fatalf("NewScript failed: %v", err)
			}

			var lines []string
			path, err := s.Run(context.Background(), Inputs{
				Step:     "renv_to_table",
				Flags:    []Flag{{Name: "--out", Value: out}},
				Output:   out,
				Progress: func(line string) { lines = append(lines, line) },
			})

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if !strings.HasPrefix(err.Error(), "renv_to_table: ") {
					t.Errorf("error should name the step: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if path != out {
				t.Errorf("path = %q, want %q", path, out)
			}
			if len(lines) != 1 || lines[0] != "writing "+out {
				t.Errorf("progress lines = %v", lines)
			}
		})
	}
}

func TestNewFactory(t *testing.T) {
	tests := []struct {
		cfg     Config
		want    string
		wantErr bool
	}{
		{cfg: Config{Type: "script", Command: "python"}, want: "*collaborator.Script"},
		{cfg: Config{Type: "renv"}, want: "collaborator.RenvToTable"},
		{cfg: Config{Type: "define"}, want: "collaborator.DefineVersions"},
		{cfg: Config{Type: "llm"}, wantErr: true},
		{cfg: Config{Type: "script"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Type+"/"+tt.cfg.Command, func(t *testing.T) {
			c, err := New(tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := reflect.TypeOf(c).String(); got != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInputsGet(t *testing.T) {
	in := Inputs{Flags: []Flag{{Name: "--model", Value: "gpt-4o"}, {Name: "--no-llm"}}}

	if v, ok := in.Get("--model"); !ok || v != "gpt-4o" {
		t.Errorf("Get(--model) = %q, %v", v, ok)
	}
	if v, ok := in.Get("--no-llm"); !ok || v != "" {
		t.Errorf("Get(--no-llm) = %q, %v", v, ok)
	}
	if _, ok := in.Get("--missing"); ok {
		t.Error("Get(--missing) should report false")
	}
}
