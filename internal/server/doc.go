// Package server serves the generated site for preview and keeps it fresh.
//
// Static files are served under router.base with the fallback page for
// unknown paths. /healthz reports the last regeneration and /metrics exposes
// the Prometheus registry when metrics are enabled. Regenerations requested
// by the watcher or the scheduler go through a Regenerator, which never runs
// two generations at once and folds triggers that arrive mid-run into a single
// follow-up run.
package server
