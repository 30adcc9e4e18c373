// Package sqlite provides a SQLite-backed implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every collection lives in its own
// database file, so removing a collection is removing its files:
//
//	<dir>/<collection>.db
//	<dir>/<collection>.db-wal
//	<dir>/<collection>.db-shm
//
// # Schema
//
// The schema is managed through versioned migrations stored in the migrations/
// directory and applied to each collection file when it is opened.
//
// # Search
//
// Query is an exact brute-force scan ranked by squared Euclidean distance,
// ascending. Ties keep insertion order.
//
// # Thread Safety
//
// All operations are thread-safe. Each collection file runs in WAL mode.
package sqlite
