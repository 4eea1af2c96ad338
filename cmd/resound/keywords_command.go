package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"resound/internal/config"
	"resound/internal/keywords"
	"resound/internal/state"
)

func newKeywordsCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Analyze word frequencies across the episode corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				analyzer := keywords.NewAnalyzer(mgr.Catalog(), logger)
				analysis := analyzer.Analyze()
				path, err := analyzer.Save(analysis, cfg.Paths.StateDir)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, top)
				for _, word := range analysis.Top(top) {
					rows = append(rows, []string{word, strconv.Itoa(analysis.WordFrequencies[word])})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]tableColumn{textCol("Word"), numCol("Episodes")},
					rows,
				))
				fmt.Fprintf(out, "%d unique words across %d episodes; full analysis at %s\n",
					analysis.Metadata.TotalUniqueWords, analysis.Metadata.EpisodesAnalyzed, path)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 25, "How many of the most frequent words to print")
	return cmd
}
