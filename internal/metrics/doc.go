// Package metrics records generation metrics.
//
// Components take a Recorder and default to NoopRecorder, so call sites never
// check for nil. The serve command swaps in a PrometheusRecorder and exposes
// it through HTTPHandler.
package metrics
