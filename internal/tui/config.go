package tui

import (
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	Sinks      []export.Sink
	Width      int
	Height     int
	ResultRows int
	AltScreen  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:      themes.Default,
		Sinks:      []export.Sink{export.FileSink{Dir: "."}},
		Width:      100,
		Height:     30,
		ResultRows: 10,
		AltScreen:  true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithSinks sets where Ctrl+D writes the results.
func WithSinks(sinks ...export.Sink) Option {
	return func(c *Config) {
		c.Sinks = sinks
	}
}

// WithResultRows sets how many predictions the result table shows.
func WithResultRows(n int) Option {
	return func(c *Config) {
		c.ResultRows = n
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
