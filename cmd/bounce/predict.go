package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/bounce-back/internal/cli"
	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/config"
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/session"
	"github.com/Veraticus/bounce-back/internal/sheets"
	"github.com/Veraticus/bounce-back/internal/summary"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score customers with the bounce-back model",
	}

	cmd.PersistentFlags().String("policy", "score", "how the local tally resolves tiers (score, label)")
	_ = viper.BindPFlag(config.KeySummaryPolicy, cmd.PersistentFlags().Lookup("policy"))

	cmd.AddCommand(predictFileCmd())
	cmd.AddCommand(predictCustomerCmd())

	return cmd
}

func predictFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <customers.csv>",
		Short: "Upload a customer file for batch scoring",
		Long: `Upload a CSV of customers to the scoring service, then show the per-tier
summary and the first predictions.

Results can be written to Results.csv (--save), archived to S3 (--s3) or
published to Google Sheets (--sheets).`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{
				config.KeyExportDir:     "out",
				config.KeyPreviewQuoted: "quoted",
			})
		},
		RunE: runPredictFile,
	}

	cmd.Flags().Bool("save", false, "write Results.csv to the export directory")
	cmd.Flags().String("out", ".", "export directory for --save")
	cmd.Flags().Bool("s3", false, "archive Results.csv to the configured S3 bucket")
	cmd.Flags().Bool("sheets", false, "publish the results to Google Sheets")
	cmd.Flags().Bool("all", false, "show every prediction instead of the first rows")
	cmd.Flags().Bool("no-progress", false, "hide the upload progress bar")
	cmd.Flags().Bool("quoted", false, "parse quoted fields in the preview")

	return cmd
}

func runPredictFile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context(), "Upload")
	defer stop()
	out := cmd.OutOrStdout()
	path := config.ExpandPath(args[0])

	save, _ := cmd.Flags().GetBool("save")
	toS3, _ := cmd.Flags().GetBool("s3")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	showAll, _ := cmd.Flags().GetBool("all")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	// Resolve sinks before uploading so configuration errors surface first.
	sinks, err := buildSinks(ctx, cfg, sinkOptions{save: save, s3: toS3})
	if err != nil {
		return err
	}
	var sheetsWriter *sheets.Writer
	if toSheets {
		sheetsWriter, err = sheets.NewWriter(ctx, cfg.Sheets, slog.Default())
		if err != nil {
			return err
		}
	}

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = newUploadBar(cmd.ErrOrStderr(), path)
	}

	var progress io.Writer
	if bar != nil {
		progress = bar
	}
	s, err := newSession(cfg, progress)
	if err != nil {
		return err
	}

	p, err := s.SelectFile(path)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Scoring " + args[0]))
	if _, err := fmt.Fprintln(out, cli.RenderPreview(p)); err != nil {
		return err
	}

	result, err := s.SubmitFile(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if interrupts.WasInterrupted() {
			slog.Info(cli.FormatInfo("No results were saved."))
		}
		if msg := s.State().Err; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	slog.Info(cli.FormatSuccess("File uploaded successfully: " + result.Source))
	if err := printBatch(out, s.State(), s.Policy(), showAll); err != nil {
		return err
	}

	return exportBatch(ctx, result, sinks, sheetsWriter)
}

func newUploadBar(w io.Writer, path string) *progressbar.ProgressBar {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(cli.UploadIcon+" Uploading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func printBatch(w io.Writer, st session.State, policy summary.Policy, showAll bool) error {
	limit := cli.ResultRows
	if showAll {
		limit = 0
	}

	body := strings.Join([]string{
		cli.RenderSummary(st.Batch.Summary),
		cli.RenderPredictions(st.Batch.Predictions, limit, policy),
	}, "\n")
	if _, err := fmt.Fprintln(w, body); err != nil {
		return err
	}

	if st.Tally.Unknown > 0 {
		slog.Warn(cli.FormatWarning(fmt.Sprintf("%d predictions carry no recognizable tier", st.Tally.Unknown)))
	}
	return nil
}

func exportBatch(ctx context.Context, result *model.BatchResult, sinks []export.Sink, sheetsWriter *sheets.Writer) error {
	var errs []error

	if len(sinks) > 0 {
		locations, err := export.Export(ctx, result, sinks...)
		for _, loc := range locations {
			slog.Info(cli.FormatSuccess("Saved " + loc))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if sheetsWriter != nil {
		id, err := sheetsWriter.WriteResults(ctx, result)
		if err != nil {
			errs = append(errs, fmt.Errorf("google sheets export failed: %w", err))
		} else {
			slog.Info(cli.FormatSuccess("Published to spreadsheet " + id))
		}
	}

	return errors.Join(errs...)
}

func predictCustomerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "customer [customer-id...]",
		Short: "Look up the bounce-back score of customers",
		Long: `Look up one or more customers by ID. Without arguments, IDs are read
interactively until end of input.`,
		RunE: runPredictCustomer,
	}
}

func runPredictCustomer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(cmd.Context(), "Customer lookup")
	defer stop()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		var errs []error
		for _, id := range args {
			if err := lookupCustomer(ctx, s, out, id); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	for {
		id, err := reader.Prompt(ctx, cmd.ErrOrStderr(), "Customer ID")
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := lookupCustomer(ctx, s, out, id); err != nil {
			slog.Debug("Lookup failed", "customer_id", id, "error", err)
		}
	}
}

func lookupCustomer(ctx context.Context, s *session.Session, w io.Writer, id string) error {
	prediction, err := s.SubmitCustomerID(ctx, id)
	if err != nil {
		msg := s.State().Err
		if msg == "" {
			msg = common.UserMessage(err)
		}
		_, _ = fmt.Fprintln(w, cli.FormatError(msg))
		return err
	}

	_, err = fmt.Fprintln(w, cli.RenderCustomer(prediction, s.Policy()))
	return err
}
