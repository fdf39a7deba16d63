package main

import (
	"github.com/Veraticus/bounce-back/internal/tui"
	"github.com/Veraticus/bounce-back/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func uiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive two-tab interface",
		Long: `Open the terminal interface with an upload tab and a customer lookup tab.
Ctrl+D writes Results.csv to the export directory, and to S3 with --s3.`,
		Args: cobra.NoArgs,
		RunE: runUI,
	}

	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().Bool("s3", false, "also archive downloads to the configured S3 bucket")
	_ = viper.BindPFlag("ui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cfg, nil)
	if err != nil {
		return err
	}

	toS3, _ := cmd.Flags().GetBool("s3")
	sinks, err := buildSinks(cmd.Context(), cfg, sinkOptions{save: true, s3: toS3})
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), s,
		tui.WithTheme(themes.GetTheme(viper.GetString("ui.theme"))),
		tui.WithSinks(sinks...),
	)
}
