// Package progress persists form progress snapshots keyed by session.
//
// A Store binds a Storage backend to one session key and reads and writes the
// whole snapshot at once. Backends only move bytes: Memory for tests and
// single-process hosts, RedisStorage for session-scoped shared state with a
// TTL, and SQLiteStorage for a local file.
package progress
