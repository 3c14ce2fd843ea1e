package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/panorama/internal/generate"
	"git.home.luguber.info/inful/panorama/internal/logfields"
)

// Recorder appends generation lifecycle events to a Store. Storage failures
// are logged and never fail the run.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

var _ generate.Observer = (*Recorder)(nil)

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, logger: slog.Default().With("component", "history")}
}

func (r *Recorder) append(ctx context.Context, runID, eventType string, payload any) {
	e, err := NewEvent(runID, eventType, payload)
	if err == nil {
		// Recording outlives the run context so cancelled runs are still logged.
		err = r.store.Append(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		r.logger.Warn("Failed to record run event",
			logfields.RunID(runID), logfields.Event(eventType), logfields.Error(err))
	}
}

func (r *Recorder) RunStarted(ctx context.Context, runID string) {
	r.append(ctx, runID, TypeRunStarted, nil)
}

func (r *Recorder) RoutesEnumerated(ctx context.Context, runID string, routes []string) {
	r.append(ctx, runID, TypeRoutesEnumerated, RoutesEnumeratedPayload{Count: len(routes), Routes: routes})
}

func (r *Recorder) PageFailed(ctx context.Context, runID string, pe generate.PageError) {
	r.append(ctx, runID, TypePageFailed, PageFailedPayload{Route: pe.Route, Error: pe.Err.Error()})
}

func (r *Recorder) RunCompleted(ctx context.Context, runID string, res *generate.Result) {
	r.append(ctx, runID, TypeRunCompleted, RunCompletedPayload{
		Generated:  len(res.Generated),
		Errors:     len(res.Errors),
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
	})
}

func (r *Recorder) RunFailed(ctx context.Context, runID string, err error) {
	r.append(ctx, runID, TypeRunFailed, RunFailedPayload{Error: err.Error()})
}
