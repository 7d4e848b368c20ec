// Package store provides SQLite-backed persistence for load orders and
// patch runs.
//
// The database holds:
//   - Layers: imported plugins with their load order position
//   - Records: every definition and tombstone a layer carries
//   - Runs: one row per persisted patch session (UUIDv7 id, digest, stats)
//   - Run Records: the output layer a run produced
//
// # Ordering
//
//   - Layers are read back in position order, lowest priority first
//   - Records are read ORDER BY category, form_key COLLATE BINARY
//   - Runs are read ORDER BY created_at, id COLLATE BINARY
//
// Record payloads are stored as JSON with HTML escaping disabled, so a
// payload read back and re-encoded is byte-identical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
