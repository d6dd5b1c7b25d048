package domain

import "time"

// MigrationAction classifies one cross-backend copy decision.
// Migration compares two storage trees directly and never consults or
// writes the database; record consistency is a follow-up sync concern.
type MigrationAction string

const (
	// MigrationCopy copies the file and its sidecar to the target.
	MigrationCopy MigrationAction = "copy"

	// MigrationCopySidecar copies only the sidecar; the file is already
	// correct at the target.
	MigrationCopySidecar MigrationAction = "copy_sidecar"

	// MigrationSkipTarget means file and sidecar are already correct at
	// the target. Recorded as an already-successful no-op.
	MigrationSkipTarget MigrationAction = "skip_target"
)

// MigrationActions lists all actions in a fixed order, for summaries.
var MigrationActions = []MigrationAction{
	MigrationCopy,
	MigrationCopySidecar,
	MigrationSkipTarget,
}

// Valid reports whether the action is one of the known kinds.
func (a MigrationAction) Valid() bool {
	switch a {
	case MigrationCopy, MigrationCopySidecar, MigrationSkipTarget:
		return true
	}
	return false
}

// MigrationPlanItem is one copy decision. No database reference at all.
type MigrationPlanItem struct {
	// DocID is the document identifier derived from the file name stem.
	DocID string

	// FileName is the managed file name at the source.
	FileName string

	// SourcePath is the backend-qualified path at the source.
	SourcePath string

	// StorageMode is carried from the sidecar when known.
	StorageMode StorageMode

	// Action is the classified copy decision.
	Action MigrationAction

	// Reason is the human-readable classification explanation.
	Reason string
}

// MigrationPlan is an ordered set of copy decisions between two backends.
type MigrationPlan struct {
	// Items are the decisions, sorted by DocID ascending.
	Items []MigrationPlanItem

	// Summary counts items per action.
	Summary map[MigrationAction]int

	// SourceBackend names the backend being copied from.
	SourceBackend string

	// TargetBackend names the backend being copied to.
	TargetBackend string

	// ScannedAt is when both trees were listed.
	ScannedAt time.Time
}

// MigrationItemResult is the outcome of executing one migration item.
type MigrationItemResult struct {
	// Item is the plan item that was executed.
	Item MigrationPlanItem

	// Success reports whether the copy (or no-op) completed.
	Success bool

	// DestPath is the written target path, when a copy happened.
	DestPath string

	// Deleted reports whether the source artifacts were removed after a
	// verified copy.
	Deleted bool

	// Error holds the failure message when Success is false.
	Error string
}

// MigrationResult aggregates the outcome of applying a migration plan.
type MigrationResult struct {
	// Items are the per-item outcomes, sorted by DocID ascending.
	Items []MigrationItemResult

	// Copied is the number of files or sidecars written to the target.
	Copied int

	// Skipped is the number of already-correct no-op items.
	Skipped int

	// Failed is the number of items that recorded an error.
	Failed int

	// Deleted is the number of source artifacts removed after a
	// verified copy. Always zero unless delete-source was requested.
	Deleted int

	// StartedAt is when execution began.
	StartedAt time.Time

	// CompletedAt is when execution finished or was cancelled.
	CompletedAt time.Time
}
