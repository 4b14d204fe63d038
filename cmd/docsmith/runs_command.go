package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docsmith/internal/runlog"
)

func newRunsCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.RunLog.Enabled {
				return fmt.Errorf("run history is disabled (set run_log.enabled = true)")
			}

			ledger, err := runlog.Open(cfg.RunLog.Path)
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			records, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				attempted, succeeded, failed := record.Totals()
				rows = append(rows, []string{
					shortHash(record.ID),
					record.Mode,
					record.StartedAt.Local().Format(time.DateTime),
					record.FinishedAt.Sub(record.StartedAt).Round(time.Second).String(),
					strconv.Itoa(attempted),
					strconv.Itoa(succeeded),
					strconv.Itoa(failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Mode", "Started", "Duration", "Attempted", "Succeeded", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
