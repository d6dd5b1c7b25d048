package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
)

var (
	syncPrefix  string
	syncVerify  bool
	syncReparse bool
	syncActions []string
	syncJSON    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile storage with the database",
	Long: `Compares the storage backend with the database and reports or
repairs every discrepancy. "sync plan" is read-only; "sync run"
applies the plan.`,
}

var syncPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the reconciliation plan without changing anything",
	RunE:  runSyncPlan,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute and apply the reconciliation plan",
	RunE:  runSyncRun,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a sync is in progress",
	RunE:  runSyncStatus,
}

var syncSidecarsCmd = &cobra.Command{
	Use:   "sidecars",
	Short: "Back-fill missing sidecars from database records",
	RunE:  runSyncSidecars,
}

func init() {
	for _, cmd := range []*cobra.Command{syncPlanCmd, syncRunCmd} {
		cmd.Flags().StringVar(&syncPrefix, "prefix", "", "limit the scan to a path prefix")
		cmd.Flags().BoolVar(&syncVerify, "verify", false, "verify content hashes, not just presence")
	}
	syncPlanCmd.Flags().BoolVar(&syncJSON, "json", false, "output the plan as JSON")
	syncRunCmd.Flags().BoolVar(&syncReparse, "reparse", false, "re-extract content when restoring records")
	syncRunCmd.Flags().StringSliceVar(&syncActions, "actions", nil,
		"apply only these action kinds (e.g. restore,sidecar_missing)")
	syncSidecarsCmd.Flags().StringVar(&syncPrefix, "prefix", "", "limit the scan to a path prefix")

	syncCmd.AddCommand(syncPlanCmd)
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncSidecarsCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSyncPlan(cmd *cobra.Command, _ []string) error {
	if reconcileService == nil {
		return errors.New("sync service not configured")
	}

	plan, err := reconcileService.PlanSync(cmd.Context(), driving.PlanOptions{
		Prefix:        syncPrefix,
		VerifyContent: syncVerify,
	})
	if err != nil {
		return fmt.Errorf("planning sync: %w", err)
	}

	if syncJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printPlanSummary(cmd, plan)
	for _, item := range plan.Items {
		if item.Action == domain.ActionVerified {
			continue
		}
		cmd.Printf("  %-16s %s\n", item.Action, item.DocID)
		cmd.Printf("                   %s\n", item.Reason)
	}
	return nil
}

func runSyncRun(cmd *cobra.Command, _ []string) error {
	if reconcileService == nil {
		return errors.New("sync service not configured")
	}

	actions, err := parseActions(syncActions)
	if err != nil {
		return err
	}

	result, err := reconcileService.ExecuteSync(cmd.Context(), driving.ExecuteOptions{
		PlanOptions: driving.PlanOptions{
			Prefix:        syncPrefix,
			VerifyContent: syncVerify,
		},
		Reparse: syncReparse,
		Actions: actions,
	})
	if err != nil {
		return fmt.Errorf("running sync: %w", err)
	}

	cmd.Println("Sync complete:")
	for _, action := range domain.SyncActions {
		stats := result.Summary[action]
		if stats.Succeeded == 0 && stats.Failed == 0 {
			continue
		}
		cmd.Printf("  %-16s %d succeeded, %d failed\n", action, stats.Succeeded, stats.Failed)
	}

	failures := result.Failures()
	for _, failure := range failures {
		cmd.Printf("  FAILED %s (%s): %s\n", failure.Item.DocID, failure.Item.Action, failure.Error)
	}
	if len(failures) > 0 {
		cmd.Printf("%d items failed; re-run sync after fixing the causes.\n", len(failures))
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, _ []string) error {
	if reconcileService == nil {
		return errors.New("sync service not configured")
	}

	status := reconcileService.Status()
	if status == nil || !status.Running {
		cmd.Println("No sync in progress.")
		return nil
	}
	cmd.Printf("Sync in progress: %s (%d items processed, %d failures)\n",
		status.Phase, status.ItemsProcessed, status.Failures)
	return nil
}

func runSyncSidecars(cmd *cobra.Command, _ []string) error {
	if reconcileService == nil {
		return errors.New("sync service not configured")
	}

	written, skipped, err := reconcileService.WriteSidecars(cmd.Context(), syncPrefix)
	if err != nil {
		return fmt.Errorf("writing sidecars: %w", err)
	}
	cmd.Printf("Sidecars written: %d, skipped: %d\n", written, skipped)
	return nil
}

func printPlanSummary(cmd *cobra.Command, plan *domain.SyncPlan) {
	cmd.Printf("Sync plan for backend %s (%d files scanned):\n", plan.Backend, len(plan.Items))
	for _, action := range domain.SyncActions {
		if count := plan.Summary[action]; count > 0 {
			cmd.Printf("  %-16s %d\n", action, count)
		}
	}
	cmd.Println()
}

func parseActions(names []string) ([]domain.SyncAction, error) {
	var actions []domain.SyncAction
	for _, name := range names {
		action := domain.SyncAction(name)
		if !action.Valid() {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
