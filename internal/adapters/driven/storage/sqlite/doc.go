// Package sqlite provides the persisted task queue and candidate
// store backed by a single SQLite database. Claims and inserts rely on
// SQLite's serialized writes for their atomicity guarantees, so the
// store is safe for concurrent workers within one process.
package sqlite
