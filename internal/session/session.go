// Package session drives the two submission modes against the scoring service
// and owns the transient state of the active tab.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/preview"
	"github.com/Veraticus/bounce-back/internal/scoring"
	"github.com/Veraticus/bounce-back/internal/summary"
)

// DefaultTimeout bounds a single scoring request.
const DefaultTimeout = 60 * time.Second

// Validation messages shown to the operator.
const (
	MsgSelectFile = "Please select a file first"
	MsgEnterID    = "Please enter a Customer ID"
)

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithPolicy sets how the client-side tally resolves tiers.
func WithPolicy(p summary.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithQuotedPreview switches the file preview to the quote-aware parser.
func WithQuotedPreview(quoted bool) Option {
	return func(s *Session) {
		s.quoted = quoted
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

type selectedFile struct {
	preview *preview.Preview
	path    string
	name    string
}

// ticket tags an in-flight request with the context it was issued for.
type ticket struct {
	gen  uint64
	mode Mode
}

// Session is safe for concurrent use. Submit calls block until the request
// completes; a completion that no longer matches the active context is
// dropped and its caller receives common.ErrSuperseded.
type Session struct {
	client     scoring.Predictor
	logger     *slog.Logger
	file       *selectedFile
	state      State
	timeout    time.Duration
	generation uint64
	inFlight   map[Mode]bool
	policy     summary.Policy
	quoted     bool
	mu         sync.Mutex
}

// New creates a session in the Idle state of the file tab.
func New(client scoring.Predictor, opts ...Option) *Session {
	s := &Session{
		client:   client,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		policy:   summary.PolicyScore,
		state:    State{Mode: ModeFile},
		inFlight: make(map[Mode]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the active context.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Policy returns the policy used to tally batch results.
func (s *Session) Policy() summary.Policy {
	return s.policy
}

// SwitchTab activates mode, resetting it to Idle. In-flight requests are not
// canceled, but their results will be discarded. A tab whose request is still
// running stays busy until that request returns.
func (s *Session) SwitchTab(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchLocked(mode)
}

func (s *Session) switchLocked(mode Mode) {
	s.generation++
	s.state = State{Mode: mode}
}

// SelectFile validates and previews a CSV file and remembers it for the next
// file submission. A rejected file clears any previous selection.
func (s *Session) SelectFile(path string) (*preview.Preview, error) {
	p, err := preview.ReadFile(path, s.quoted)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.file = nil
		s.rejectLocked(err)
		return nil, err
	}

	s.file = &selectedFile{path: path, name: filepath.Base(path), preview: p}
	if !s.state.Loading() {
		s.state.Err = ""
	}

	return p, nil
}

// SelectedFile returns the name and preview of the selected file.
func (s *Session) SelectedFile() (string, *preview.Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return "", nil, false
	}
	return s.file.name, s.file.preview, true
}

// SubmitFile uploads the selected file for batch scoring.
func (s *Session) SubmitFile(ctx context.Context) (*model.BatchResult, error) {
	s.mu.Lock()
	if s.state.Mode != ModeFile {
		s.switchLocked(ModeFile)
	}
	if s.inFlight[ModeFile] {
		s.mu.Unlock()
		return nil, common.ErrBusy
	}
	if s.file == nil {
		err := common.NewUserError(MsgSelectFile, common.ErrInvalidInput)
		s.rejectLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	t := s.beginLocked()
	file := *s.file
	s.mu.Unlock()

	s.logger.Info("Submitting file for scoring", "file", file.name)

	result, err := s.predictFile(ctx, file)
	if err != nil {
		return nil, s.fail(t, err)
	}

	tally := summary.Summarize(result.Predictions, s.policy)
	if verr := summary.Verify(result.Summary, tally); verr != nil {
		s.logger.Warn("Service summary differs from client tally",
			"file", file.name,
			"policy", s.policy.String(),
			"error", verr)
	}

	if err := s.finish(t, State{Batch: result, Tally: tally, Status: StatusSuccess}); err != nil {
		return nil, err
	}

	s.logger.Info("File scored", "file", file.name, "total", result.Summary.Total)
	return result, nil
}

// SubmitCustomerID looks up a single customer.
func (s *Session) SubmitCustomerID(ctx context.Context, customerID string) (*model.CustomerPrediction, error) {
	id := strings.TrimSpace(customerID)

	s.mu.Lock()
	if s.state.Mode != ModeCustomer {
		s.switchLocked(ModeCustomer)
	}
	if s.inFlight[ModeCustomer] {
		s.mu.Unlock()
		return nil, common.ErrBusy
	}
	if id == "" {
		err := common.NewUserError(MsgEnterID, common.ErrInvalidInput)
		s.rejectLocked(err)
		s.mu.Unlock()
		return nil, err
	}
	t := s.beginLocked()
	s.mu.Unlock()

	s.logger.Info("Looking up customer", "customer_id", id)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	prediction, err := s.client.PredictCustomer(ctx, id)
	if err != nil {
		return nil, s.fail(t, err)
	}

	if err := s.finish(t, State{Customer: prediction, Status: StatusSuccess}); err != nil {
		return nil, err
	}

	s.logger.Info("Customer scored",
		"customer_id", prediction.CustomerID,
		"score", prediction.Score,
		"tier", prediction.Tier().String())
	return prediction, nil
}

// Results returns the batch held by a successful file submission.
func (s *Session) Results() (*model.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != ModeFile || s.state.Status != StatusSuccess || s.state.Batch == nil {
		return nil, common.ErrNoResults
	}
	return s.state.Batch, nil
}

func (s *Session) predictFile(ctx context.Context, file selectedFile) (*model.BatchResult, error) {
	f, err := os.Open(file.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.name, err)
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.client.PredictFile(ctx, file.name, f)
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// beginLocked moves the active context to Loading and tags the request.
// Previous results and errors are cleared.
func (s *Session) beginLocked() ticket {
	s.generation++
	s.state = State{Mode: s.state.Mode, Status: StatusLoading}
	s.inFlight[s.state.Mode] = true
	return ticket{gen: s.generation, mode: s.state.Mode}
}

// rejectLocked records a validation failure. No request is issued, so an
// in-flight request keeps its Loading state.
func (s *Session) rejectLocked(err error) {
	if s.state.Loading() {
		return
	}
	s.state = State{Mode: s.state.Mode, Status: StatusFailed, Err: common.UserMessage(err)}
}

// finish releases t's tab and stores the outcome if t still owns the active
// context.
func (s *Session) finish(t ticket, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight[t.mode] = false

	if t.gen != s.generation || t.mode != s.state.Mode {
		s.logger.Debug("Discarding stale response",
			"mode", t.mode.String(),
			"generation", t.gen,
			"active_mode", s.state.Mode.String(),
			"active_generation", s.generation)
		return common.ErrSuperseded
	}

	st.Mode = t.mode
	s.state = st
	return nil
}

func (s *Session) fail(t ticket, err error) error {
	s.logger.Warn("Scoring request failed", "mode", t.mode.String(), "error", err)

	msg := scoring.Describe(err)
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "Error: the scoring service did not respond in time"
	}

	if ferr := s.finish(t, State{Status: StatusFailed, Err: msg}); ferr != nil {
		return fmt.Errorf("%w: %w", ferr, err)
	}
	return err
}
