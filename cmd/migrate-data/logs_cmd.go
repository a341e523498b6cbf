package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List past migration runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := newToolEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			ctx = env.Context(ctx)

			logs, err := env.migrationService().Logs(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(logs)
			}

			for _, log := range logs {
				mode := "live"
				if log.DryRun {
					mode = "dry-run"
				}
				fmt.Printf("%s  %s  %-9s  %-7s  rows=%d valid=%d skipped=%d failed=%d created=%d\n",
					log.ID,
					log.StartedAt.Format(time.RFC3339),
					log.Status,
					mode,
					log.Counters.TotalRows,
					log.Counters.ValidRows,
					log.Counters.SkippedRows,
					log.Counters.FailedRows,
					log.Counters.UsersCreated,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print full logs as JSON")
	return cmd
}
