// Package store persists agents, meetings, chats and memberships in SQLite.
//
// The schema is generated from a model.Registry: one table per descriptor,
// each column carrying its label as a DDL comment. Opening a store is
// idempotent and stamps the schema version into user_version.
//
// # Sessions
//
// All access goes through a Session, which serializes every operation on a
// single writer goroutine:
//
//	sess, _, err := store.Initialize(dir, "debate")
//	f := store.NewFactories(sess)
//	agent, err := f.Agent.New(ctx, model.AgentFields{Name: "Critic"})
//
// Create and Collection.Append commit before they return. A failed write
// returns an error wrapping ErrUniqueViolation, ErrReferentialViolation or
// ErrStoreUnavailable and leaves neither the store nor the in-memory
// collections changed. Entities are never deleted.
//
// # Ordering
//
// Timestamps are UTC nanoseconds from a monotonic clock. List queries
// order by created_at, then rowid, so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
