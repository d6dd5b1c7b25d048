package driving

import (
	"context"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// PlanOptions configures a reconciliation scan.
type PlanOptions struct {
	// Prefix restricts the scan to a path prefix within the backend.
	// Empty scans the whole managed namespace.
	Prefix string

	// VerifyContent enables content hashing during the scan. Hashing is
	// the dominant scan cost; without it, silent corruption goes
	// undetected but large corpora scan fast.
	VerifyContent bool
}

// ExecuteOptions configures plan execution.
type ExecuteOptions struct {
	// PlanOptions are used when execution plans internally.
	PlanOptions

	// Reparse makes restores regenerate derived content from the cached
	// parser artifact (when present) instead of trusting the sidecar's
	// recorded status alone.
	Reparse bool

	// Actions restricts execution to a subset of action kinds.
	// Empty executes everything.
	Actions []domain.SyncAction
}

// SyncStatus reports the progress of a running reconciliation.
type SyncStatus struct {
	// Running indicates whether a plan or execute is in progress.
	Running bool

	// Phase is "scanning", "planning" or "executing".
	Phase string

	// ItemsProcessed is the number of plan items applied so far.
	ItemsProcessed int

	// Failures is the number of item errors recorded so far.
	Failures int
}

// ReconcileService diffs storage state against database state and
// applies the resulting plan. Planning is pure and repeatable; execution
// is the only phase that mutates storage or the database.
type ReconcileService interface {
	// PlanSync scans storage, indexes the database, and classifies every
	// discrepancy. Read-only and safe to run repeatedly.
	PlanSync(ctx context.Context, opts PlanOptions) (*domain.SyncPlan, error)

	// ExecuteSync plans internally, then applies the plan item by item.
	// Item failures are isolated and recorded; only infrastructure
	// faults fail the call, and even those return the partial result
	// accumulated before the fault.
	ExecuteSync(ctx context.Context, opts ExecuteOptions) (*domain.ExecutionResult, error)

	// ExecutePlan applies a previously computed plan.
	ExecutePlan(ctx context.Context, plan *domain.SyncPlan, opts ExecuteOptions) (*domain.ExecutionResult, error)

	// WriteSidecars back-fills missing sidecars from existing database
	// records. Never mutates the database.
	WriteSidecars(ctx context.Context, prefix string) (written, skipped int, err error)

	// Status returns the progress of a running reconciliation.
	Status() *SyncStatus
}

// MigrationService copies managed files and sidecars between two storage
// backends. It never touches the database: after a migration the caller
// must run a sync cycle against the new backend to reconcile records.
type MigrationService interface {
	// PlanMigration compares the two storage trees and classifies every
	// document into a copy decision. Read-only over both backends.
	PlanMigration(ctx context.Context, source, target string) (*domain.MigrationPlan, error)

	// ExecuteMigration plans internally, then applies the plan as pure
	// storage-to-storage copies. A source artifact is removed only when
	// deleteSource is set and its copy verified at the target.
	ExecuteMigration(ctx context.Context, source, target string, deleteSource bool) (*domain.MigrationResult, error)

	// ExecuteMigrationPlan applies a previously computed plan.
	ExecuteMigrationPlan(ctx context.Context, plan *domain.MigrationPlan, deleteSource bool) (*domain.MigrationResult, error)
}
