package tui

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/session"
	"github.com/Veraticus/bounce-back/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the TUI state. Request state lives in the session; state is
// the snapshot taken after every update.
type Model struct {
	theme     themes.Theme
	session   *session.Session
	help      help.Model
	pathInput textinput.Model
	idInput   textinput.Model
	spinner   spinner.Model
	config    Config
	keymap    KeyMap
	notice    string
	noticeErr bool
	state     session.State
	width     int
	height    int
	quitting  bool
}

func newModel(s *session.Session, cfg Config) Model {
	pathInput := textinput.New()
	pathInput.Placeholder = "path/to/customers.csv"
	pathInput.Prompt = "File: "
	pathInput.CharLimit = 1024
	pathInput.Focus()

	idInput := textinput.New()
	idInput.Placeholder = "Customer ID"
	idInput.Prompt = "Customer ID: "
	idInput.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(cfg.Theme.Primary)

	return Model{
		theme:     cfg.Theme,
		session:   s,
		help:      help.New(),
		pathInput: pathInput,
		idInput:   idInput,
		spinner:   sp,
		config:    cfg,
		keymap:    DefaultKeyMap(),
		state:     s.State(),
		width:     cfg.Width,
		height:    cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if handled, keyCmd := m.handleKey(msg); handled {
			m.state = m.session.State()
			return m, keyCmd
		}
		cmd = m.updateInput(msg)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case fileSelectedMsg:
		m.handleFileSelected(msg)

	case batchScoredMsg:
		m.handleResult(msg.err, func() {
			m.setNotice("File uploaded successfully: "+msg.result.Source, false)
		})

	case customerScoredMsg:
		m.handleResult(msg.err, func() {
			m.notice = ""
		})

	case exportedMsg:
		m.handleExported(msg)

	default:
		cmd = m.updateInput(msg)
	}

	m.state = m.session.State()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keymap.NextTab), key.Matches(msg, m.keymap.PrevTab):
		m.toggleTab()
		return true, nil

	case key.Matches(msg, m.keymap.Select):
		if m.activeMode() == session.ModeCustomer {
			return true, m.lookup()
		}
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.setNotice(session.MsgSelectFile, true)
			return true, nil
		}
		return true, selectFile(m.session, path)

	case key.Matches(msg, m.keymap.Upload):
		if m.activeMode() != session.ModeFile {
			return false, nil
		}
		if m.session.State().Loading() {
			return true, nil
		}
		m.notice = ""
		return true, submitFile(m.session)

	case key.Matches(msg, m.keymap.Download):
		if m.activeMode() != session.ModeFile {
			return false, nil
		}
		return true, exportResults(m.session, m.config.Sinks)
	}

	return false, nil
}

func (m *Model) lookup() tea.Cmd {
	if m.session.State().Loading() {
		return nil
	}
	m.notice = ""
	return submitCustomer(m.session, m.idInput.Value())
}

func (m *Model) toggleTab() {
	next := session.ModeCustomer
	if m.activeMode() == session.ModeCustomer {
		next = session.ModeFile
	}
	m.session.SwitchTab(next)
	m.notice = ""

	if next == session.ModeCustomer {
		m.pathInput.Blur()
		m.idInput.Focus()
	} else {
		m.idInput.Blur()
		m.pathInput.Focus()
	}
}

func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.activeMode() == session.ModeCustomer {
		m.idInput, cmd = m.idInput.Update(msg)
	} else {
		m.pathInput, cmd = m.pathInput.Update(msg)
	}
	return cmd
}

func (m *Model) handleFileSelected(msg fileSelectedMsg) {
	if msg.err != nil {
		m.setNotice(common.UserMessage(msg.err), true)
		return
	}
	m.setNotice("Selected "+filepath.Base(msg.path)+"; press Ctrl+S to upload", false)
}

// handleResult drops stale completions and busy rejections; the session has
// already recorded everything else.
func (m *Model) handleResult(err error, onSuccess func()) {
	switch {
	case err == nil:
		onSuccess()
	case errors.Is(err, common.ErrSuperseded):
	case errors.Is(err, common.ErrBusy):
		m.setNotice("A request is already running", true)
	default:
		m.notice = ""
	}
}

func (m *Model) handleExported(msg exportedMsg) {
	switch {
	case errors.Is(msg.err, common.ErrNoResults):
		m.setNotice("No results to download yet", true)
	case msg.err != nil:
		m.setNotice("Download failed: "+msg.err.Error(), true)
	default:
		m.setNotice("Saved "+strings.Join(msg.locations, ", "), false)
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) activeMode() session.Mode {
	return m.session.State().Mode
}
