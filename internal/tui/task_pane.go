package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/adrg/internal/events"
)

// Task states shown in the list.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// TaskState is what the pane knows about one task.
type TaskState struct {
	TaskID      string
	Description string
	Agent       string
	Status      string
	Output      []string
	StartTime   time.Time
	Duration    time.Duration
}

// TaskPaneModel is the task list with a scrollable output viewport for the
// selected task.
type TaskPaneModel struct {
	tasks       map[string]*TaskState
	order       []string // first-seen order
	selectedIdx int
	follow      bool // select each task as it starts
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
	updateTag   int
}

const listWidth = 28

// NewTaskPaneModel creates an empty task pane.
func NewTaskPaneModel() TaskPaneModel {
	return TaskPaneModel{
		tasks:    make(map[string]*TaskState),
		follow:   true,
		viewport: viewport.New(0, 0),
	}
}

// tickMsg debounces viewport refreshes while output streams in.
type tickMsg struct {
	tag int
}

// Update handles key presses and task events.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.order)-1 {
				m.selectedIdx++
				m.follow = false
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.follow = false
				m.updateViewportContent()
			}
		case KeyFollow:
			m.follow = true
			m.selectedIdx = len(m.order) - 1
			m.updateViewportContent()
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskStartedEvent:
		t := m.track(msg.ID)
		t.Description = msg.Description
		t.Agent = msg.Agent
		t.Status = StatusRunning
		t.StartTime = msg.Timestamp
		if m.follow {
			m.selectedIdx = m.indexOf(msg.ID)
		}
		m.updateViewportContent()

	case events.TaskSkippedEvent:
		t := m.track(msg.ID)
		t.Description = msg.Description
		t.Agent = msg.Agent
		t.Status = StatusSkipped
		t.Output = append(t.Output, "[Skipped]")
		if m.selectedID() == msg.ID {
			m.updateViewportContent()
		}

	case events.TaskOutputEvent:
		t, ok := m.tasks[msg.ID]
		if !ok {
			break
		}
		t.Output = append(t.Output, msg.Line)
		if m.selectedID() == msg.ID {
			m.updateTag++
			tag := m.updateTag
			return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
				return tickMsg{tag: tag}
			})
		}

	case events.TaskCompletedEvent:
		if t, ok := m.tasks[msg.ID]; ok {
			t.Status = StatusCompleted
			t.Duration = msg.Duration
			t.Output = append(t.Output, fmt.Sprintf("\n[Completed in %v]", msg.Duration.Round(time.Millisecond)))
			if m.selectedID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskFailedEvent:
		if t, ok := m.tasks[msg.ID]; ok {
			t.Status = StatusFailed
			t.Duration = msg.Duration
			t.Output = append(t.Output, fmt.Sprintf("\n[Failed: %v]", msg.Err))
			if m.selectedID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case tickMsg:
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

func (m *TaskPaneModel) track(taskID string) *TaskState {
	t, ok := m.tasks[taskID]
	if !ok {
		t = &TaskState{TaskID: taskID}
		m.tasks[taskID] = t
		m.order = append(m.order, taskID)
	}
	return t
}

func (m TaskPaneModel) indexOf(taskID string) int {
	for i, id := range m.order {
		if id == taskID {
			return i
		}
	}
	return m.selectedIdx
}

// Task returns the state of taskID.
func (m TaskPaneModel) Task(taskID string) (TaskState, bool) {
	t, ok := m.tasks[taskID]
	if !ok {
		return TaskState{}, false
	}
	return *t, true
}

// View renders the list and the viewport side by side.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderList(),
		lipgloss.NewStyle().
			Width(m.width-listWidth-4).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m TaskPaneModel) renderList() string {
	var b strings.Builder

	title := StyleTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(listWidth, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	}
	for i, id := range m.order {
		name := id
		if len(name) > listWidth-3 {
			name = name[:listWidth-6] + "..."
		}

		line := StatusIcon(m.tasks[id].Status) + " " + name
		if i == m.selectedIdx {
			line = StyleSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(listWidth).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	switch status {
	case StatusRunning:
		return StyleStatusRunning.Render("●")
	case StatusCompleted:
		return StyleStatusComplete.Render("✓")
	case StatusFailed:
		return StyleStatusFailed.Render("✗")
	case StatusSkipped:
		return StyleStatusSkipped.Render("⏭")
	default:
		return StyleStatusPending.Render("○")
	}
}

func (m TaskPaneModel) selectedID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.order) {
		return m.order[m.selectedIdx]
	}
	return ""
}

func (m *TaskPaneModel) updateViewportContent() {
	t, ok := m.tasks[m.selectedID()]
	if !ok {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	header := StyleTitle.Render(t.TaskID)
	if t.Agent != "" {
		header += StyleHelp.Render(t.Agent)
	}
	lines := append([]string{header, t.Description, ""}, t.Output...)
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *TaskPaneModel) resizeViewport() {
	m.viewport.Width = max(m.width-listWidth-4, 10)
	m.viewport.Height = max(m.height-4, 5)
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
