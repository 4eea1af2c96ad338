package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"resound/internal/config"
	"resound/internal/driver"
	"resound/internal/state"
)

const dateFlagLayout = "2006-01-02"

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateFlagLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return parsed.UTC(), nil
}

func printPassSummaries(cmd *cobra.Command, summaries []driver.PassSummary) {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Stage,
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]tableColumn{textCol("Stage"), numCol("Processed"), numCol("Succeeded"), numCol("Failed")},
		rows,
	))

	failed := 0
	for _, s := range summaries {
		failed += s.Failed
	}
	if failed > 0 {
		message := fmt.Sprintf("%d episodes failed; run `resound resume` to retry.", failed)
		if stdoutIsTerminal() {
			message = ansiYellow + message + ansiReset
		}
		fmt.Fprintln(out, message)
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download pending episode audio from the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateFlag("start-date", startDate)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("end-date", endDate)
			if err != nil {
				return err
			}
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summary, err := drv.Download(cmd.Context(), limit, start, end)
				printPassSummaries(cmd, []driver.PassSummary{summary})
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum episodes to download (0 = no limit)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Only episodes broadcast on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Only episodes broadcast on or before this date (YYYY-MM-DD)")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert downloaded audio into video artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summary, err := drv.Convert(cmd.Context(), limit)
				printPassSummaries(cmd, []driver.PassSummary{summary})
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum episodes to convert (0 = no limit)")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload converted videos on the release schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summary, err := drv.Upload(cmd.Context(), limit, dryRun)
				printPassSummaries(cmd, []driver.PassSummary{summary})
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum episodes to upload (0 = no limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be uploaded without publishing")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the download, convert, and upload passes over all pending work",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summaries, err := drv.Run(cmd.Context(), dryRun)
				printPassSummaries(cmd, summaries)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop short of publishing uploads")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Requeue retryable failures and finish pending work",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summaries, err := drv.Resume(cmd.Context(), dryRun)
				if len(summaries) == 0 && err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending.")
					return nil
				}
				printPassSummaries(cmd, summaries)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop short of publishing uploads")
	return cmd
}
