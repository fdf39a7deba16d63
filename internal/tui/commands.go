package tui

import (
	"context"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// exportTimeout bounds a Ctrl+D export across all sinks.
const exportTimeout = 2 * time.Minute

func selectFile(s *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		p, err := s.SelectFile(path)
		return fileSelectedMsg{path: path, preview: p, err: err}
	}
}

// submitFile runs the upload. The session applies its own request timeout.
func submitFile(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		result, err := s.SubmitFile(context.Background())
		return batchScoredMsg{result: result, err: err}
	}
}

func submitCustomer(s *session.Session, id string) tea.Cmd {
	return func() tea.Msg {
		prediction, err := s.SubmitCustomerID(context.Background(), id)
		return customerScoredMsg{prediction: prediction, err: err}
	}
}

func exportResults(s *session.Session, sinks []export.Sink) tea.Cmd {
	return func() tea.Msg {
		result, err := s.Results()
		if err != nil {
			return exportedMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		locations, err := export.Export(ctx, result, sinks...)
		if err != nil && len(locations) == 0 {
			return exportedMsg{err: err}
		}
		if err != nil {
			common.LogError(ctx, err, "Some exports failed", common.Fields{"written": len(locations)})
		}
		return exportedMsg{locations: locations}
	}
}
