// Package tui is the interactive two-tab terminal front end.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/bounce-back/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the operator quits or ctx ends.
func Run(ctx context.Context, s *session.Session, opts ...Option) error {
	if s == nil {
		return fmt.Errorf("session is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	_, err := tea.NewProgram(newModel(s, cfg), programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
