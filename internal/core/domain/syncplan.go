package domain

import "time"

// SyncAction classifies one storage/database discrepancy.
// The set is closed: the reconciler assigns exactly one action to every
// document ID observed in the union of storage and database state.
type SyncAction string

const (
	// ActionRestore recreates a missing database record from the sidecar.
	ActionRestore SyncAction = "restore"

	// ActionSidecarMissing writes a sidecar from the existing record.
	ActionSidecarMissing SyncAction = "sidecar_missing"

	// ActionOrphanedDB flags a record whose file is gone. Report only:
	// the file may have been removed out of band, or storage may be
	// unreachable, so healing requires operator judgment.
	ActionOrphanedDB SyncAction = "orphaned_db"

	// ActionReparse re-extracts content after a hash mismatch.
	ActionReparse SyncAction = "reparse"

	// ActionVerified means storage and database agree. Report only.
	ActionVerified SyncAction = "verified"
)

// SyncActions lists all actions in a fixed order, for summaries.
var SyncActions = []SyncAction{
	ActionRestore,
	ActionSidecarMissing,
	ActionOrphanedDB,
	ActionReparse,
	ActionVerified,
}

// Valid reports whether the action is one of the known kinds.
func (a SyncAction) Valid() bool {
	switch a {
	case ActionRestore, ActionSidecarMissing, ActionOrphanedDB, ActionReparse, ActionVerified:
		return true
	}
	return false
}

// Mutates reports whether executing the action writes storage or the
// database. Report-only actions never mutate.
func (a SyncAction) Mutates() bool {
	return a == ActionRestore || a == ActionSidecarMissing || a == ActionReparse
}

// SyncPlanItem is one reconciliation finding. Immutable once produced.
type SyncPlanItem struct {
	// DocID is the document identifier derived from the file name stem.
	DocID string

	// FilePath is the backend-qualified managed file path.
	// Empty for orphaned_db items.
	FilePath string

	// SidecarPath is the co-located sidecar path, if one exists.
	SidecarPath string

	// Action is the classified discrepancy.
	Action SyncAction

	// Reason is the human-readable classification explanation.
	Reason string
}

// SyncPlan is an ordered set of findings over one scan. Plans are pure
// values: re-scanning produces a new plan, nothing mutates an existing one.
// Items are sorted by DocID so unchanged state yields identical plans.
type SyncPlan struct {
	// Items are the findings, sorted by DocID ascending.
	Items []SyncPlanItem

	// Summary counts items per action.
	Summary map[SyncAction]int

	// Backend names the storage backend that was scanned.
	Backend string

	// ScannedAt is when the scan ran.
	ScannedAt time.Time
}

// ActionStats buckets execution outcomes for one action kind.
type ActionStats struct {
	// Succeeded is the number of items applied without error.
	Succeeded int

	// Failed is the number of items that recorded an error.
	Failed int
}

// ItemResult is the outcome of executing one plan item.
type ItemResult struct {
	// Item is the plan item that was executed.
	Item SyncPlanItem

	// Success reports whether the item applied cleanly.
	Success bool

	// Error holds the failure message when Success is false.
	Error string
}

// ExecutionResult aggregates the outcome of applying a sync plan.
// It is append-only during a run and frozen at completion; a cancelled
// run still carries the items completed before the cancellation point.
type ExecutionResult struct {
	// Items are the per-item outcomes, in execution order.
	Items []ItemResult

	// Summary buckets success/failure counts per action.
	Summary map[SyncAction]ActionStats

	// StartedAt is when execution began.
	StartedAt time.Time

	// CompletedAt is when execution finished or was cancelled.
	CompletedAt time.Time
}

// Failures returns the items that recorded an error.
func (r *ExecutionResult) Failures() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if !item.Success {
			failed = append(failed, item)
		}
	}
	return failed
}

// NewExecutionSummary returns an empty per-action stats map.
func NewExecutionSummary() map[SyncAction]ActionStats {
	return make(map[SyncAction]ActionStats)
}
