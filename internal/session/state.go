package session

import "github.com/Veraticus/bounce-back/internal/model"

// Mode identifies a tab context.
type Mode int

// Tab contexts.
const (
	ModeFile Mode = iota
	ModeCustomer
)

func (m Mode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeCustomer:
		return "customer"
	default:
		return "unknown"
	}
}

// Status is the phase of the submission state machine.
//
//	Idle --submit--> Loading --ok--> Success
//	                 Loading --err--> Failed
//	Success|Failed --submit--> Loading
type Status int

// Submission phases.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the active tab context. Batch is set after a
// successful file submission, Customer after a successful lookup, and Err
// holds the message to show after a failure.
type State struct {
	Batch    *model.BatchResult
	Customer *model.CustomerPrediction
	Err      string
	// Tally is the client-side count of Batch.Predictions. The service
	// summary stays authoritative for display.
	Tally  model.Summary
	Status Status
	Mode   Mode
}

// Loading reports whether a request is in flight for this context.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}
