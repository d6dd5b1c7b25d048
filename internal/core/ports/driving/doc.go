// Package driving defines the interfaces through which the outside world
// drives the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them, and driving adapters (the CLI today, an
// HTTP layer tomorrow) call them.
//
//   - ReconcileService: plan/execute storage-to-database reconciliation
//   - MigrationService: plan/execute cross-backend migration
//   - IngestService: bring new files under management
//   - DocumentService: document record CRUD
//   - SearchService: full-text search
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
