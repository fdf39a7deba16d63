package main

import (
	"fmt"

	"github.com/Veraticus/bounce-back/internal/cli"
	"github.com/Veraticus/bounce-back/internal/config"
	"github.com/Veraticus/bounce-back/internal/preview"
	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Show the first rows of a customer file",
		Long: `Show the header and up to nine data rows of a CSV file, exactly as they
would be shown before uploading it for scoring.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{config.KeyPreviewQuoted: "quoted"})
		},
		RunE: runPreview,
	}

	cmd.Flags().Bool("quoted", false, "parse quoted fields instead of splitting on every comma")

	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := preview.ReadFile(config.ExpandPath(args[0]), cfg.QuotedPreview)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPreview(p))
	return err
}
