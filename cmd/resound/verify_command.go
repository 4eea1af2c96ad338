package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"resound/internal/config"
	"resound/internal/fileutil"
	"resound/internal/pipeline"
	"resound/internal/state"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that recorded artifacts still exist on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				type missing struct {
					identifier string
					kind       string
					path       string
				}
				var problems []missing

				for identifier, rec := range allRecords(mgr) {
					if rec.Files.Audio != "" && !fileutil.FileExists(rec.Files.Audio) {
						problems = append(problems, missing{identifier, "audio", rec.Files.Audio})
					}
					if rec.Files.Video != "" && !fileutil.FileExists(rec.Files.Video) {
						problems = append(problems, missing{identifier, "video", rec.Files.Video})
					}
				}
				sort.Slice(problems, func(i, j int) bool {
					return problems[i].identifier < problems[j].identifier
				})

				out := cmd.OutOrStdout()
				if len(problems) == 0 {
					fmt.Fprintln(out, "All recorded artifacts present.")
					return nil
				}

				rows := make([][]string, 0, len(problems))
				for _, p := range problems {
					rows = append(rows, []string{p.identifier, p.kind, p.path})
				}
				fmt.Fprintln(out, renderTable(
					[]tableColumn{textCol("Episode"), textCol("Artifact"), textCol("Missing path")},
					rows,
				))
				return fmt.Errorf("%d recorded artifacts missing on disk", len(problems))
			})
		},
	}
}

func allRecords(mgr *state.Manager) map[string]*pipeline.Record {
	records := make(map[string]*pipeline.Record)
	for _, stage := range pipeline.AllStages() {
		for _, rec := range mgr.Pipeline().QueryByStage(stage) {
			records[rec.Identifier()] = rec
		}
	}
	return records
}
