// Package engine runs a multi-page form: it owns the schema and the current
// page index, moves between pages, applies field edits, persists progress
// snapshots and emits lifecycle events.
//
// Page changes are two-step. The engine updates the index, tells the Surface
// the old page is leaving, and schedules a continuation that tells the Surface
// the new page has entered and only then persists the snapshot. A newer page
// change cancels a pending continuation; Flush runs it immediately.
//
// Invalid requests (out-of-range pages, unknown field ids, wrong value kinds)
// are dropped and reported through the boolean results; they are never
// errors.
package engine
