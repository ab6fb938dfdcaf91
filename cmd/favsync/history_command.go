package main

import (
	"errors"

	"github.com/spf13/cobra"

	"favsync/internal/config"
	"favsync/internal/report"
	"favsync/internal/runlog"
)

func newHistoryCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent run summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled in configuration")
			}

			store, err := runlog.Open(cfg.History.Path, cfg.History.Keep)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			report.WriteHistory(cmd.OutOrStdout(), records, stdoutIsTTY())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
