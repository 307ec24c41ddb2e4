// Package store records generation runs in SQLite.
//
// Each run keeps its metadata (rule-set fingerprint, seed, counts, worker count)
// and the merged publication frequency index as it was before subscriptions
// consumed city occurrences. The index is stored with its first-seen order, so
// ReadIndex rebuilds the exact index the subscription phase started from.
//
// Connections are opened in WAL mode with synchronous=NORMAL, a 5s busy
// timeout and foreign keys enforced, so deleting a run drops its index rows.
// The schema version lives in PRAGMA user_version; a database written by a
// newer schema is refused rather than read with the wrong layout.
package store
