package tui

import (
	"strings"

	"github.com/Veraticus/bounce-back/internal/cli"
	"github.com/Veraticus/bounce-back/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render(cli.ChartIcon + " Bounce-Back Risk Prediction"),
		m.renderTabs(),
	}

	if m.state.Mode == session.ModeCustomer {
		sections = append(sections, m.renderCustomerTab())
	} else {
		sections = append(sections, m.renderFileTab())
	}

	sections = append(sections, m.renderStatus(), m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	tabs := []struct {
		label string
		mode  session.Mode
	}{
		{label: "Upload File", mode: session.ModeFile},
		{label: "Customer ID", mode: session.ModeCustomer},
	}

	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		style := m.theme.Tab
		if tab.mode == m.state.Mode {
			style = m.theme.ActiveTab
		}
		rendered[i] = style.Render(tab.label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
}

func (m Model) renderFileTab() string {
	parts := []string{m.pathInput.View()}

	if name, p, ok := m.session.SelectedFile(); ok {
		parts = append(parts,
			m.theme.Subtitle.Render("Preview of "+name),
			cli.RenderPreview(p))
	}

	if m.state.Status == session.StatusSuccess && m.state.Batch != nil {
		parts = append(parts,
			m.theme.Bold.Render("Summary"),
			cli.RenderSummary(m.state.Batch.Summary),
			m.theme.Bold.Render("Predictions"),
			cli.RenderPredictions(m.state.Batch.Predictions, m.config.ResultRows, m.session.Policy()))
	}

	return strings.Join(parts, "\n")
}

func (m Model) renderCustomerTab() string {
	parts := []string{m.idInput.View()}

	if m.state.Status == session.StatusSuccess && m.state.Customer != nil {
		parts = append(parts, cli.RenderCustomer(m.state.Customer, m.session.Policy()))
	}

	return strings.Join(parts, "\n")
}

// renderStatus shows the spinner while loading, then the session error or
// the latest notice.
func (m Model) renderStatus() string {
	switch {
	case m.state.Loading():
		label := "Scoring..."
		if m.state.Mode == session.ModeFile {
			label = "Uploading and scoring..."
		}
		return m.spinner.View() + " " + m.theme.StatusPending.Render(label)
	case m.state.Status == session.StatusFailed && m.state.Err != "":
		return m.theme.StatusError.Render(m.state.Err)
	case m.notice != "" && m.noticeErr:
		return m.theme.StatusError.Render(m.notice)
	case m.notice != "":
		return m.theme.StatusSuccess.Render(m.notice)
	default:
		return ""
	}
}
