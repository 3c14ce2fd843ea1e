package metrics

import "time"

// ResultLabel enumerates page and stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcome is the final status of a generation run.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeSkipped  RunOutcome = "skipped"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// Recorder defines observability hooks for generation runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	IncPageResult(result ResultLabel)
	SetRoutes(n int)
	ObserveGitSyncDuration(d time.Duration, success bool)
	IncRetry(operation string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                   {}
func (NoopRecorder) IncPageResult(ResultLabel)                  {}
func (NoopRecorder) SetRoutes(int)                              {}
func (NoopRecorder) ObserveGitSyncDuration(time.Duration, bool) {}
func (NoopRecorder) IncRetry(string)                            {}
