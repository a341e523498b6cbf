package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConsolidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Merge duplicate school records left behind by earlier imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := newToolEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			ctx = env.Context(ctx)

			report, err := env.consolidationService().ConsolidateDuplicates(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("duplicate groups found: %d\n", report.GroupsFound)
			fmt.Printf("  schools deleted:     %d\n", report.SchoolsDeleted)
			fmt.Printf("  memberships moved:   %d\n", report.MembershipsMoved)
			fmt.Printf("  memberships deleted: %d\n", report.MembershipsDeleted)
			fmt.Printf("  evidence moved:      %d\n", report.EvidenceMoved)
			for _, groupErr := range report.Errors {
				fmt.Printf("  group %q failed: %s\n", groupErr.SurvivorName, groupErr.Reason)
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d duplicate groups could not be merged", len(report.Errors))
			}
			return nil
		},
	}
}
