package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/services"
)

type runOptions struct {
	file           string
	apply          bool
	credentialsOut string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the legacy user import (dry-run unless --apply is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Legacy export CSV file (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run)")
	cmd.Flags().StringVar(&opts.credentialsOut, "credentials-out", "", "Write the credential report CSV here (live runs only)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runMigration(ctx context.Context, opts runOptions) error {
	if opts.credentialsOut != "" && !opts.apply {
		return withCode(exitUsage, fmt.Errorf("--credentials-out requires --apply: dry runs produce no credentials"))
	}

	content, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("reading %s: %w", opts.file, err))
	}

	env, err := newToolEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	ctx = env.Context(ctx)

	log, err := env.migrationService().Run(ctx, services.RunOptions{
		CSVContent: string(content),
		DryRun:     !opts.apply,
	})
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			return withCode(exitConflict, err)
		}
		if log != nil {
			fmt.Fprintf(os.Stderr, "run %s failed after %d rows\n", log.ID, log.Counters.TotalRows)
		}
		return err
	}

	printRunSummary(log)

	if opts.credentialsOut != "" && log.Report != nil {
		if err := writeCredentialsCSV(opts.credentialsOut, log.Report); err != nil {
			return fmt.Errorf("writing credential report: %w", err)
		}
		fmt.Printf("credential report written to %s\n", opts.credentialsOut)
	}
	return nil
}

func printRunSummary(log *migrationlog.MigrationLog) {
	mode := "live"
	if log.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("run %s (%s): %s\n", log.ID, mode, log.Status)
	fmt.Printf("  rows:            %d\n", log.Counters.TotalRows)
	fmt.Printf("  valid:           %d\n", log.Counters.ValidRows)
	fmt.Printf("  skipped:         %d\n", log.Counters.SkippedRows)
	fmt.Printf("  failed:          %d\n", log.Counters.FailedRows)
	fmt.Printf("  users created:   %d\n", log.Counters.UsersCreated)
	fmt.Printf("  schools created: %d\n", log.Counters.SchoolsCreated)
	for _, rowErr := range log.Errors {
		fmt.Printf("  row %d (%s): %s\n", rowErr.Row, rowErr.Email, rowErr.Reason)
	}
}

func writeCredentialsCSV(path string, report *migrationlog.CredentialReport) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"email", "temporaryPassword", "schoolName"}); err != nil {
		return err
	}
	for _, entry := range report.UserCredentials {
		if err := w.Write([]string{entry.Email, entry.TemporaryPassword, entry.SchoolName}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
