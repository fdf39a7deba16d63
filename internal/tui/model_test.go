package tui

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/scoring"
	"github.com/Veraticus/bounce-back/internal/session"
	"github.com/Veraticus/bounce-back/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	batch    *model.BatchResult
	customer *model.CustomerPrediction
	err      error
}

func (s *stubPredictor) PredictFile(_ context.Context, name string, body io.Reader) (*model.BatchResult, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	result := *s.batch
	result.Source = name
	return &result, nil
}

func (s *stubPredictor) PredictCustomer(_ context.Context, _ string) (*model.CustomerPrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

func stubBatch(t *testing.T) *model.BatchResult {
	t.Helper()
	var b model.BatchResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"predictions":[{"Customer_ID":"CUST-1","Score":0.91,"Label":"Platinum"}],
		"summary":{"platinum_predictions":1,"glod_predictions":0,"silver_predictions":0,
		           "bronze_predictions":0,"copper_predictions":0,"total_predictions":1}
	}`), &b))
	return &b
}

func newTestModel(t *testing.T, p scoring.Predictor) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Theme = themes.Default
	cfg.Sinks = []export.Sink{export.FileSink{Dir: dir}}
	return newModel(session.New(p), cfg), dir
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// press sends a key and feeds the resulting command's message back.
func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	m, cmd := update(t, m, tea.KeyMsg{Type: k})
	if cmd == nil {
		return m
	}
	m, _ = update(t, m, cmd())
	return m
}

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestModel_StartsOnFileTab(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	assert.Equal(t, session.ModeFile, m.state.Mode)
	view := m.View()
	assert.Contains(t, view, "Upload File")
	assert.Contains(t, view, "File: ")
}

func TestModel_TabSwitching(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m = press(t, m, tea.KeyTab)
	assert.Equal(t, session.ModeCustomer, m.state.Mode)
	assert.True(t, m.idInput.Focused())
	assert.False(t, m.pathInput.Focused())

	m = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, session.ModeFile, m.state.Mode)
	assert.True(t, m.pathInput.Focused())
}

func TestModel_SelectWithoutPath(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m = press(t, m, tea.KeyEnter)
	assert.Contains(t, m.View(), session.MsgSelectFile)
}

func TestModel_UploadWithoutFile(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m = press(t, m, tea.KeyCtrlS)
	assert.Equal(t, session.StatusFailed, m.state.Status)
	assert.Contains(t, m.View(), session.MsgSelectFile)
}

func TestModel_RejectsNonCSV(t *testing.T) {
	m, dir := newTestModel(t, &stubPredictor{})
	path := filepath.Join(dir, "customers.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n1"), 0o600))

	m.pathInput.SetValue(path)
	m = press(t, m, tea.KeyEnter)
	assert.Contains(t, m.View(), "Please upload a CSV file")
}

func TestModel_FileFlow(t *testing.T) {
	m, dir := newTestModel(t, &stubPredictor{batch: stubBatch(t)})
	path := writeCSV(t, t.TempDir(), "Customer_ID,Age\nCUST-1,40\n")

	m.pathInput.SetValue(path)
	m = press(t, m, tea.KeyEnter)
	view := m.View()
	assert.Contains(t, view, "Preview of customers.csv")
	assert.Contains(t, view, "Age")

	m = press(t, m, tea.KeyCtrlS)
	require.Equal(t, session.StatusSuccess, m.state.Status)
	view = m.View()
	assert.Contains(t, view, "File uploaded successfully: customers.csv")
	assert.Contains(t, view, "Platinum")
	assert.Contains(t, view, "Total")

	m = press(t, m, tea.KeyCtrlD)
	assert.Contains(t, m.View(), "Saved")

	data, err := os.ReadFile(filepath.Join(dir, export.Filename))
	require.NoError(t, err)
	assert.Equal(t, "Customer_ID,Score,Label\nCUST-1,0.91,Platinum", string(data))
}

func TestModel_DownloadWithoutResults(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m = press(t, m, tea.KeyCtrlD)
	assert.Contains(t, m.View(), "No results to download yet")
}

func TestModel_CustomerFlow(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{
		customer: &model.CustomerPrediction{CustomerID: "CUST-1", Score: 0.55},
	})

	m = press(t, m, tea.KeyTab)
	m.idInput.SetValue("CUST-1")
	m = press(t, m, tea.KeyEnter)

	require.Equal(t, session.StatusSuccess, m.state.Status)
	view := m.View()
	assert.Contains(t, view, "CUST-1")
	assert.Contains(t, view, "0.5500")
	assert.Contains(t, view, "Silver")
}

func TestModel_CustomerBlankID(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyEnter)
	assert.Contains(t, m.View(), session.MsgEnterID)
}

func TestModel_ServiceError(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{err: &scoring.APIError{StatusCode: 500, Detail: "model not loaded"}})

	m = press(t, m, tea.KeyTab)
	m.idInput.SetValue("CUST-1")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, session.StatusFailed, m.state.Status)
	assert.Contains(t, m.View(), "Error: model not loaded")
}

func TestModel_IgnoresSupersededResult(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})
	m.setNotice("kept", false)

	m, _ = update(t, m, batchScoredMsg{err: common.ErrSuperseded})
	assert.Equal(t, "kept", m.notice)

	m, _ = update(t, m, customerScoredMsg{err: common.ErrBusy})
	assert.Equal(t, "A request is already running", m.notice)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := newTestModel(t, &stubPredictor{})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	assert.Equal(t, 140, m.width)
	assert.Equal(t, 50, m.height)
}

func TestGetTheme(t *testing.T) {
	assert.Equal(t, themes.CatppuccinMocha.Primary, themes.GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, themes.Default.Primary, themes.GetTheme("unknown").Primary)
}
