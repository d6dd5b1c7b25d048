// Package services implements the core business logic.
//
// Services implement the driving ports and depend only on driven ports,
// the domain package, and the sidecar codec. All infrastructure
// (storage backends, SQLite, the search index) is injected, so every
// service is unit-testable against in-memory fakes.
//
// The reconciliation engine is split along the plan/execute seam:
//
//   - Scanner inventories one storage backend (read-only)
//   - Reconciler classifies storage vs database state into a SyncPlan (pure)
//   - Executor applies a SyncPlan item by item, isolating failures
//   - Migrator plans and applies storage-to-storage copies, never
//     touching the database
package services
