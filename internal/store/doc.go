// Package store provides SQLite-backed storage for task boards.
//
// Tables:
//   - tasks: native attributes (title, status, priority, assignee_id,
//     due_date, estimate, done, tags)
//   - task_labels: native labels relationship
//   - columns: board column descriptors
//   - field_values: EAV rows, value serialized as {"value": <json>}
//   - users, labels: entities referenced by filter values
//   - saved_filters: named filter triples, deduplicated by fingerprint
//
// The store only serves reads to the filter engine. Writes exist for seeding
// boards and saving filters.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store implements filter.Directory, so it can verify the user and label ids
// that filters reference.
package store
