// Package history keeps an append-only log of generation run events in SQLite
// and derives run summaries from it.
package history
