package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/aristath/adrg/internal/orchestrator"
	"github.com/aristath/adrg/internal/pipeline"
	"github.com/aristath/adrg/internal/scheduler"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func statusEmoji(s scheduler.TaskStatus) string {
	switch s {
	case scheduler.TaskCompleted:
		return "✅"
	case scheduler.TaskFailed:
		return "❌"
	case scheduler.TaskSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}

// printSummary prints one row per attempted task, in task order, and the
// location of the final document when it was produced.
func printSummary(w io.Writer, crew *orchestrator.Crew, results map[string]scheduler.TaskResult) {
	if len(results) == 0 {
		return
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n📊 Workflow Results Summary\n%s\n", rule, rule)

	var rows [][]string
	for _, id := range crew.TaskIDs() {
		r, ok := results[id]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			statusEmoji(r.Status) + " " + id,
			r.Status.String(),
			r.OutputPath,
			fileSize(r.OutputPath),
			duration(r),
			r.Error,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Task", "Status", "Output", "Size", "Time", "Error"}, rows))

	if r, ok := results[pipeline.TaskAssembleDocument]; ok && r.OutputPath != "" {
		fmt.Fprintf(w, "\n🎉 Final ADRG document: %s\n%s\n\n", r.OutputPath, rule)
	}
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func fileSize(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func duration(r scheduler.TaskResult) string {
	if r.Status == scheduler.TaskSkipped {
		return ""
	}
	return r.Duration.Round(time.Millisecond).String()
}
