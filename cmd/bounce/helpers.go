package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/bounce-back/internal/config"
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/scoring"
	"github.com/Veraticus/bounce-back/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindFlags binds the running command's flags to viper keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newSession wires a scoring client into a session. progress, when set,
// receives the bytes of every upload.
func newSession(cfg *config.Config, progress io.Writer) (*session.Session, error) {
	opts := []scoring.Option{scoring.WithLogger(slog.Default())}
	if progress != nil {
		opts = append(opts, scoring.WithUploadProgress(progress))
	}

	client, err := scoring.NewClient(scoring.Config{URL: cfg.APIURL, Timeout: cfg.APITimeout}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring client: %w", err)
	}

	slog.Debug("Using scoring service", "endpoint", client.Endpoint(), "timeout", cfg.APITimeout)

	return session.New(client,
		session.WithTimeout(cfg.APITimeout),
		session.WithPolicy(cfg.Policy),
		session.WithQuotedPreview(cfg.QuotedPreview),
		session.WithLogger(slog.Default()),
	), nil
}

type sinkOptions struct {
	save bool
	s3   bool
}

// buildSinks returns the export sinks selected by flags.
func buildSinks(ctx context.Context, cfg *config.Config, opts sinkOptions) ([]export.Sink, error) {
	var sinks []export.Sink

	if opts.save {
		sinks = append(sinks, export.FileSink{Dir: cfg.ExportDir})
	}

	if opts.s3 {
		s3Sink, err := export.NewS3Sink(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3Sink)
	}

	return sinks, nil
}
