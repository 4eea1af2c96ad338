package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"resound/internal/config"
	"resound/internal/driver"
	"resound/internal/state"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Scan the archive collection and register new episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, mgr *state.Manager, logger *slog.Logger) error {
				drv := driver.New(cfg, mgr, logger)
				summary, err := drv.Discover(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]tableColumn{textCol("Result"), numCol("Count")},
					[][]string{
						{"Collection items", strconv.Itoa(summary.Total)},
						{"New", strconv.Itoa(summary.New)},
						{"Updated", strconv.Itoa(summary.Updated)},
						{"Skipped (recent)", strconv.Itoa(summary.Skipped)},
						{"Failed", strconv.Itoa(summary.Failed)},
					},
				))
				return nil
			})
		},
	}
}
