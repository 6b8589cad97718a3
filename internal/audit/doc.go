// Package audit persists a log of schedule mutations and the reminder dedup
// state.
//
// Drivers:
//   - "file": JSON Lines audit log plus a dedup snapshot and journal
//   - "sqlite": a single SQLite database (modernc.org/sqlite, no cgo)
//
// Driver "none" (or empty) disables the store; Open returns nil.
package audit
