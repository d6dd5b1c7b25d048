// Package domain defines the core business entities for Inkwell.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The canonical database record for an ingested document
//   - Page: A unit of extracted content within a document
//   - SyncPlan / ExecutionResult: The reconciliation engine's plan and outcome
//   - MigrationPlan / MigrationResult: Cross-backend migration plan and outcome
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
