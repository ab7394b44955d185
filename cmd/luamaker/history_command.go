package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"luamaker/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open export history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list export history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No exports recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					strconv.FormatUint(uint64(run.AppID), 10),
					run.AppName,
					strconv.Itoa(run.Depots),
					strconv.Itoa(run.Skipped),
					fmt.Sprintf("%d/%d", run.Copied, run.Copied+run.CopyFailures),
					yesNo(run.PluginMode),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "App", "Name", "Depots", "Skipped", "Manifests", "Plugin"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}
