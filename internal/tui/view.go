package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ptran999/nodebucket/internal/models"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	activePanelStyle = panelStyle.Copy().
				BorderForeground(primaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

func columnTitle(col models.Column) string {
	if col == models.ColumnDone {
		return "Done"
	}
	return "To Do"
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	session := a.board.Session()
	b.WriteString(titleStyle.Render("nodebucket"))
	b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(
		fmt.Sprintf("  %s (#%d)", session.Name, session.EmployeeID)))
	b.WriteString("\n\n")

	colWidth := 36
	if a.width > 0 {
		colWidth = max(20, a.width/2-4)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderColumn(models.ColumnTodo, colWidth),
		" ",
		a.renderColumn(models.ColumnDone, colWidth),
	))
	b.WriteString("\n")

	if a.mode == modeAdd {
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		b.WriteString("\n")
	}

	if a.message != "" {
		style := lipgloss.NewStyle().Foreground(successColor)
		if a.isError {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(style.Render(a.message))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(max(a.width, 40)).Render(a.help()))
	return b.String()
}

func (a *App) renderColumn(col models.Column, width int) string {
	tasks := a.board.List(col)

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%s (%d)", columnTitle(col), len(tasks))))

	switch {
	case a.loading && len(tasks) == 0:
		lines = append(lines, helpStyle.Render("Loading tasks..."))
	case len(tasks) == 0:
		lines = append(lines, helpStyle.Render("No tasks"))
	}

	for i, t := range tasks {
		text := truncate(t.Text, width-4)
		if col == a.col && i == a.cursor[col] {
			lines = append(lines, selectedStyle.Render("▶ "+text))
		} else {
			lines = append(lines, taskItemStyle.Render("  "+text))
		}
	}

	style := panelStyle
	if col == a.col {
		style = activePanelStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) help() string {
	switch a.mode {
	case modeAdd:
		return "Enter:create | Esc:cancel"
	case modeConfirm:
		return "y:delete | n:keep"
	default:
		return "←→:column | ↑↓:select | K/J:reorder | m:move | a:add | d:delete | r:reload | q:quit"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
