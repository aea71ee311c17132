// Package report renders extraction outputs into the ADRG document.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Fallbacks used when an input file does not exist.
const (
	EmptyTable      = "| Column |\n| --- |\n| (no data) |"
	MissingProtocol = "(Protocol information not available)"
	EmptyInventory  = "| Dataset\nDataset Label | Class | Efficacy | Safety | Baseline or other subject characteristics | PK/PD | Primary Objective | Structure |\n| --- | --- | --- | --- | --- | --- | --- | --- |"
)

// CSVToMarkdown reads a CSV file and renders it as a Markdown pipe table.
func CSVToMarkdown(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("CSV is empty: %s", path)
	}

	return MarkdownTable(rows[0], rows[1:]), nil
}

// MarkdownTable renders a header and body rows. Pipes inside cells are escaped.
func MarkdownTable(header []string, body [][]string) string {
	var b strings.Builder

	writeRow(&b, header)
	b.WriteByte('\n')

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)

	for _, row := range body {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	b.WriteString("| ")
	b.WriteString(strings.Join(escaped, " | "))
	b.WriteString(" |")
}

// CSVTableOrFallback renders path, or returns fallback if the file does not
// exist. Any other read or parse error is returned.
func CSVTableOrFallback(path, fallback string) (string, error) {
	if !exists(path) {
		return fallback, nil
	}
	return CSVToMarkdown(path)
}

// TextOrFallback returns the content of path, or fallback if it does not exist.
func TextOrFallback(path, fallback string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
