package tui

import (
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/preview"
)

// fileSelectedMsg reports the outcome of previewing a file.
type fileSelectedMsg struct {
	err     error
	preview *preview.Preview
	path    string
}

// batchScoredMsg reports a finished file submission.
type batchScoredMsg struct {
	err    error
	result *model.BatchResult
}

// customerScoredMsg reports a finished customer lookup.
type customerScoredMsg struct {
	err        error
	prediction *model.CustomerPrediction
}

// exportedMsg reports where the results were written.
type exportedMsg struct {
	err       error
	locations []string
}
