package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/adrg/internal/events"
)

// ProgressPaneModel shows workflow counts and a progress bar.
type ProgressPaneModel struct {
	runID     string
	total     int
	completed int
	skipped   int
	running   int
	failed    int
	pending   int
	finished  bool
	err       error
	width     int
	height    int
	focused   bool
}

// NewProgressPaneModel creates an empty progress pane.
func NewProgressPaneModel() ProgressPaneModel {
	return ProgressPaneModel{}
}

// Update handles workflow events.
func (m ProgressPaneModel) Update(msg tea.Msg) (ProgressPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case events.WorkflowProgressEvent:
		m.runID = msg.RunID
		m.total = msg.Total
		m.completed = msg.Completed
		m.skipped = msg.Skipped
		m.running = msg.Running
		m.failed = msg.Failed
		m.pending = msg.Pending

	case events.WorkflowFinishedEvent:
		m.runID = msg.RunID
		m.finished = true
		m.err = msg.Err
	}

	return m, nil
}

// View renders the pane.
func (m ProgressPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Workflow")
	b.WriteString(title)
	if m.runID != "" {
		b.WriteString(StyleHelp.Render(m.runID))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Total:     %d\n", m.total)
	fmt.Fprintf(&b, "Completed: %s\n", StyleStatusComplete.Render(fmt.Sprint(m.completed)))
	fmt.Fprintf(&b, "Skipped:   %s\n", StyleStatusSkipped.Render(fmt.Sprint(m.skipped)))
	fmt.Fprintf(&b, "Running:   %s\n", StyleStatusRunning.Render(fmt.Sprint(m.running)))
	fmt.Fprintf(&b, "Failed:    %s\n", StyleStatusFailed.Render(fmt.Sprint(m.failed)))
	fmt.Fprintf(&b, "Pending:   %s\n", StyleStatusPending.Render(fmt.Sprint(m.pending)))
	b.WriteString("\n")

	if m.total > 0 {
		barWidth := min(m.width-16, 40)
		done := m.completed + m.skipped
		doneWidth := done * barWidth / m.total
		failedWidth := m.failed * barWidth / m.total
		runningWidth := m.running * barWidth / m.total
		pendingWidth := barWidth - doneWidth - failedWidth - runningWidth

		bar := StyleStatusComplete.Render(strings.Repeat("=", max(0, doneWidth)))
		bar += StyleStatusFailed.Render(strings.Repeat("!", max(0, failedWidth)))
		bar += StyleStatusRunning.Render(strings.Repeat("-", max(0, runningWidth)))
		bar += StyleStatusPending.Render(strings.Repeat(".", max(0, pendingWidth)))

		fmt.Fprintf(&b, "[%s]  %d/%d\n", bar, done, m.total)
	}

	if m.finished {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(StyleStatusFailed.Render("✗ " + m.err.Error()))
		} else {
			b.WriteString(StyleStatusComplete.Render("✓ Workflow completed"))
		}
		b.WriteString("\n")
		b.WriteString(StyleHelp.Render("press q to exit"))
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(lipgloss.NewStyle().MaxWidth(m.width - 4).Render(b.String()))
}

// Finished reports whether the workflow has ended.
func (m ProgressPaneModel) Finished() bool {
	return m.finished
}

// SetSize updates the pane dimensions.
func (m *ProgressPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *ProgressPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
