package collaborator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RenvToTable converts an renv.lock file into a Package,Version CSV.
// It reads the lock file from the --renv flag and writes in.Output.
type RenvToTable struct{}

// RenvPackage is one row of the package table.
type RenvPackage struct {
	Name    string
	Version string
}

func (RenvToTable) Run(ctx context.Context, in Inputs) (string, error) {
	lockPath, ok := in.Get("--renv")
	if !ok || lockPath == "" {
		return "", fmt.Errorf("%s: missing --renv input", in.Step)
	}
	if in.Output == "" {
		return "", fmt.Errorf("%s: missing output path", in.Step)
	}

	data, err := os.ReadFile(lockPath)
	if err != nil {
		return "", fmt.Errorf("renv.lock not found at %s: %w", lockPath, err)
	}

	pkgs, err := ParseRenvLock(data)
	if err != nil {
		return "", err
	}

	rows := [][]string{{"Package", "Version"}}
	for _, p := range pkgs {
		rows = append(rows, []string{p.Name, p.Version})
	}
	if err := writeCSV(in.Output, rows); err != nil {
		return "", err
	}

	in.progress(fmt.Sprintf("Wrote %s (%d packages).", in.Output, len(pkgs)))
	return in.Output, nil
}

// ParseRenvLock extracts the package list from renv.lock content. The R
// runtime entry is dropped and rows are sorted by name, ignoring case.
func ParseRenvLock(data []byte) ([]RenvPackage, error) {
	var lock map[string]json.RawMessage
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("renv.lock is not valid JSON: %w", err)
	}

	raw, ok := lock["Packages"]
	if !ok {
		raw, ok = lock["packages"]
	}
	var section map[string]json.RawMessage
	if !ok || json.Unmarshal(raw, &section) != nil || section == nil {
		return nil, fmt.Errorf("could not find a 'Packages' section in renv.lock")
	}

	pkgs := make([]RenvPackage, 0, len(section))
	for name, meta := range section {
		if strings.EqualFold(name, "r") {
			continue
		}
		var fields map[string]any
		_ = json.Unmarshal(meta, &fields)
		pkgs = append(pkgs, RenvPackage{Name: name, Version: versionField(fields)})
	}

	sort.Slice(pkgs, func(i, j int) bool {
		a, b := strings.ToLower(pkgs[i].Name), strings.ToLower(pkgs[j].Name)
		if a != b {
			return a < b
		}
		return pkgs[i].Name < pkgs[j].Name
	})
	return pkgs, nil
}

func versionField(fields map[string]any) string {
	for _, key := range []string{"Version", "version"} {
		if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// writeCSV writes rows to path, creating parent directories.
func writeCSV(path string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
