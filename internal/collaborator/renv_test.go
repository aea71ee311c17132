package collaborator

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseRenvLock(t *testing.T) {
	tests := []struct {
		name    string
		lock    string
		want    []RenvPackage
		wantErr string
	}{
		{
			name: "standard lock",
			lock: `{
				"R": {"Version": "4.3.1"},
				"Packages": {
					"dplyr": {"Package": "dplyr", "Version": "1.1.4"},
					"R": {"Version": "4.3.1"},
					"admiral": {"Package": "admiral", "Version": " 0.12.0 "},
					"Tplyr": {"Package": "Tplyr", "Version": "1.2.1"}
				}
			}`,
			want: []RenvPackage{
				{Name: "admiral", Version: "0.12.0"},
				{Name: "dplyr", Version: "1.1.4"},
				{Name: "Tplyr", Version: "1.2.1"},
			},
		},
		{
			name: "lowercase keys",
			lock: `{"packages": {"haven": {"version": "2.5.4"}, "nover": {}}}`,
			want: []RenvPackage{
				{Name: "haven", Version: "2.5.4"},
				{Name: "nover", Version: ""},
			},
		},
		{
			name:    "no packages section",
			lock:    `{"R": {"Version": "4.3.1"}}`,
			wantErr: "Packages",
		},
		{
			name:    "invalid json",
			lock:    `{not json`,
			wantErr: "not valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRenvLock([]byte(tt.lock))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRenvLock failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenvToTableRun(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "renv.lock")
	out := filepath.Join(dir, "nested", "R_Packages_And_Versions.csv")

	if err := os.WriteFile(lock, []byte(`{"Packages": {"b": {"Version": "2"}, "A": {"Version": "1"}}}`), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := RenvToTable{}.Run(context.Background(), Inputs{
		Step:   "renv_to_table",
		Flags:  []Flag{{Name: "--renv", Value: lock}, {Name: "--out", Value: out}},
		Output: out,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if path != out {
		t.Errorf("path = %q, want %q", path, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if want := "Package,Version\nA,1\nb,2\n"; string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}
}

func TestRenvToTableMissingInput(t *testing.T) {
	_, err := RenvToTable{}.Run(context.Background(), Inputs{
		Step:   "renv_to_table",
		Flags:  []Flag{{Name: "--renv", Value: filepath.Join(t.TempDir(), "absent.lock")}},
		Output: filepath.Join(t.TempDir(), "out.csv"),
	})
	if err == nil || !strings.Contains(err.Error(), "renv.lock not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}

	if _, err := (RenvToTable{}).Run(context.Background(), Inputs{Step: "renv_to_table"}); err == nil {
		t.Fatal("expected error without --renv")
	}
}
