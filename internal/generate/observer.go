package generate

import "context"

// Observer receives run lifecycle events. Implementations log their own
// failures; they cannot fail the run.
type Observer interface {
	RunStarted(ctx context.Context, runID string)
	RoutesEnumerated(ctx context.Context, runID string, routes []string)
	PageFailed(ctx context.Context, runID string, pe PageError)
	RunCompleted(ctx context.Context, runID string, res *Result)
	RunFailed(ctx context.Context, runID string, err error)
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) RunStarted(context.Context, string)                 {}
func (NoopObserver) RoutesEnumerated(context.Context, string, []string) {}
func (NoopObserver) PageFailed(context.Context, string, PageError)      {}
func (NoopObserver) RunCompleted(context.Context, string, *Result)      {}
func (NoopObserver) RunFailed(context.Context, string, error)           {}

// multiObserver fans events out in registration order.
type multiObserver []Observer

func (m multiObserver) RunStarted(ctx context.Context, id string) {
	for _, o := range m {
		o.RunStarted(ctx, id)
	}
}

func (m multiObserver) RoutesEnumerated(ctx context.Context, id string, routes []string) {
	for _, o := range m {
		o.RoutesEnumerated(ctx, id, routes)
	}
}

func (m multiObserver) PageFailed(ctx context.Context, id string, pe PageError) {
	for _, o := range m {
		o.PageFailed(ctx, id, pe)
	}
}

func (m multiObserver) RunCompleted(ctx context.Context, id string, res *Result) {
	for _, o := range m {
		o.RunCompleted(ctx, id, res)
	}
}

func (m multiObserver) RunFailed(ctx context.Context, id string, err error) {
	for _, o := range m {
		o.RunFailed(ctx, id, err)
	}
}
