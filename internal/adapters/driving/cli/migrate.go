package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

var (
	migrateDryRun       bool
	migrateDeleteSource bool
	migrateJSON         bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [source-backend] [target-backend]",
	Short: "Copy managed files and sidecars between storage backends",
	Long: `Compares two storage backends and copies files and sidecars from
source to target. Every copy is verified at the target before the
source is touched; database records are never modified, so run
"sync run" against the target backend afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "show the migration plan without copying")
	migrateCmd.Flags().BoolVar(&migrateDeleteSource, "delete-source", false,
		"remove source files after each verified copy")
	migrateCmd.Flags().BoolVar(&migrateJSON, "json", false, "output the plan as JSON (with --dry-run)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrationService == nil {
		return errors.New("migration service not configured")
	}

	source, target := args[0], args[1]
	ctx := cmd.Context()

	if migrateDryRun {
		plan, err := migrationService.PlanMigration(ctx, source, target)
		if err != nil {
			return fmt.Errorf("planning migration: %w", err)
		}
		return printMigrationPlan(cmd, plan)
	}

	cmd.Printf("Migrating %s -> %s...\n", source, target)

	result, err := migrationService.ExecuteMigration(ctx, source, target, migrateDeleteSource)
	if err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	cmd.Printf("Migration complete: %d copied, %d skipped, %d failed",
		result.Copied, result.Skipped, result.Failed)
	if migrateDeleteSource {
		cmd.Printf(", %d source files removed", result.Deleted)
	}
	cmd.Println()

	for _, item := range result.Items {
		if !item.Success {
			cmd.Printf("  FAILED %s (%s): %s\n", item.Item.DocID, item.Item.Action, item.Error)
		}
	}
	return nil
}

func printMigrationPlan(cmd *cobra.Command, plan *domain.MigrationPlan) error {
	if migrateJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Migration plan %s -> %s:\n", plan.SourceBackend, plan.TargetBackend)
	for _, action := range domain.MigrationActions {
		if count := plan.Summary[action]; count > 0 {
			cmd.Printf("  %-14s %d\n", action, count)
		}
	}
	cmd.Println()
	for _, item := range plan.Items {
		if item.Action == domain.MigrationSkipTarget {
			continue
		}
		cmd.Printf("  %-14s %s (%s)\n", item.Action, item.DocID, item.Reason)
	}
	return nil
}
