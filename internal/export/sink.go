package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/model"
)

// Sink stores a rendered results file. name is the scored source file; sinks
// that keep one file per source use it to build the destination.
type Sink interface {
	Put(ctx context.Context, name string, body []byte) (string, error)
}

// FileSink writes Results.csv into Dir.
type FileSink struct {
	Dir string
}

// Put implements Sink. The source name is ignored. Filesystem errors are
// permanent.
func (f FileSink) Put(_ context.Context, _ string, body []byte) (string, error) {
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", permanent(fmt.Errorf("failed to create export directory: %w", err))
	}

	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", permanent(fmt.Errorf("failed to write %s: %w", path, err))
	}
	return path, nil
}

// DefaultRetry is used by Export for each sink.
var DefaultRetry = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2,
}

// Export renders the predictions of result once and hands them to every sink.
// It returns the locations written; a failing sink does not stop the others.
// Only errors accepted by common.IsRetryable are retried.
func Export(ctx context.Context, result *model.BatchResult, sinks ...Sink) ([]string, error) {
	if result == nil || len(result.Predictions) == 0 {
		return nil, common.ErrNoResults
	}

	if len(sinks) == 0 {
		common.LogDebug(ctx, "No export sinks configured", common.Fields{"source": result.Source})
		return nil, nil
	}

	body := []byte(ToCSV(result.Predictions))
	locations := make([]string, 0, len(sinks))
	var errs []error

	for _, sink := range sinks {
		var location string
		err := common.WithRetry(ctx, func() error {
			var putErr error
			location, putErr = sink.Put(ctx, result.Source, body)
			if putErr != nil && !common.IsRetryable(putErr) {
				return permanent(putErr)
			}
			return putErr
		}, DefaultRetry)
		if err != nil {
			common.LogError(ctx, err, "Export failed", common.Fields{
				"source": result.Source,
				"sink":   fmt.Sprintf("%T", sink),
			})
			errs = append(errs, err)
			continue
		}

		common.LogInfo(ctx, "Results exported", common.Fields{
			"source":   result.Source,
			"location": location,
			"rows":     len(result.Predictions),
		})
		locations = append(locations, location)
	}

	return locations, errors.Join(errs...)
}

func permanent(err error) error {
	return &common.RetryableError{Err: err, Retryable: false}
}
