package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"resound/internal/config"
	"resound/internal/pipeline"
	"resound/internal/state"
)

var stageTitler = cases.Title(language.English)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the HTML migration report and print a status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				path, err := mgr.GenerateReport(output)
				if err != nil {
					return err
				}

				stats := mgr.Statistics()
				rows := [][]string{
					{"Catalog episodes", strconv.Itoa(stats.CatalogTotal)},
					{"Available", strconv.Itoa(stats.CatalogAvailable)},
				}
				for _, stage := range pipeline.AllStages() {
					count := stats.Pipeline.PerStage[stage]
					if count == 0 {
						continue
					}
					rows = append(rows, []string{stageTitler.String(string(stage)), strconv.Itoa(count)})
				}
				rows = append(rows, []string{"Published videos", strconv.Itoa(stats.PublishedVideos)})

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]tableColumn{textCol("Metric"), numCol("Count")},
					rows,
				))
				fmt.Fprintf(out, "Report written to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report file path (default <state_dir>/report.html)")
	return cmd
}
