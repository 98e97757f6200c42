package formui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Width(14)
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	noticeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")).MarginBottom(1)
	warnLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Add database"))
	b.WriteString("\n")
	if m.board.text != "" {
		b.WriteString(noticeStyle.Render(m.board.text))
		b.WriteString("\n")
	}

	b.WriteString(m.selectRow(focusEngine, "Engine", m.form.Engine, formdeps.StateIdle))
	b.WriteString(m.selectRow(focusPlan, "Plan", m.form.Plan, m.ctrl.PlanState()))
	b.WriteString(m.selectRow(focusEnvironment, "Environment", m.form.Environment, m.ctrl.EnvironmentState()))
	if m.form.Endpoint.Visible() {
		b.WriteString(m.endpointRow())
	}

	b.WriteString("\n")
	if m.logLine != "" {
		b.WriteString(m.renderLog())
		b.WriteString("\n")
	}
	b.WriteString(m.helpLine())
	b.WriteString("\n")
	return b.String()
}

func (m Model) selectRow(f focus, label string, field *formdeps.FieldState, state formdeps.RefreshState) string {
	value := field.Text()
	if opts := field.Options(); len(opts) > 1 {
		value = fmt.Sprintf("‹ %s ›  %d/%d", value, field.Index(), len(opts)-1)
	}

	row := labelStyle.Render(label) + m.renderValue(f, value)
	if state == formdeps.StateFetching {
		row += mutedStyle.Render("  loading…")
	}
	if msg, ok := m.fieldErrors[f]; ok {
		row += "  " + errorStyle.Render(msg)
	}
	return row + "\n"
}

func (m Model) endpointRow() string {
	value := m.endpoint
	if m.focus == focusEndpoint {
		value += "▏"
	} else if value == "" {
		value = mutedStyle.Render("optional")
	}
	return labelStyle.Render("Endpoint") + m.renderValue(focusEndpoint, value) + "\n"
}

func (m Model) renderValue(f focus, value string) string {
	if m.focus == f {
		return focusStyle.Render(" " + value + " ")
	}
	return valueStyle.Render(" " + value + " ")
}

func (m Model) renderLog() string {
	line := m.logLine
	if m.width > 4 && lipgloss.Width(line) > m.width {
		line = string([]rune(line)[:m.width-1]) + "…"
	}
	if m.logLevel >= slog.LevelWarn {
		return warnLogStyle.Render(line)
	}
	return mutedStyle.Render(line)
}

func (m Model) helpLine() string {
	parts := make([]string, 0, 6)
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return mutedStyle.Render(strings.Join(parts, " • "))
}
