package history

import (
	"context"
	"sort"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// RunSummary is the read model of one run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Routes      int           `json:"routes"`
	Generated   int           `json:"generated"`
	FailedPages []string      `json:"failed_pages,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Summarize folds events into run summaries, newest first. Events of unknown
// types are ignored.
func Summarize(events []*Event) []*RunSummary {
	runs := map[string]*RunSummary{}
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		s, ok := runs[e.RunID]
		if !ok {
			s = &RunSummary{RunID: e.RunID, Status: StatusRunning, StartedAt: e.Timestamp}
			runs[e.RunID] = s
		}
		apply(s, e)
	}

	out := make([]*RunSummary, 0, len(runs))
	for _, s := range runs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID > out[j].RunID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func apply(s *RunSummary, e *Event) {
	switch e.Type {
	case TypeRunStarted:
		s.StartedAt = e.Timestamp
	case TypeRoutesEnumerated:
		var p RoutesEnumeratedPayload
		if e.Decode(&p) == nil {
			s.Routes = p.Count
		}
	case TypePageFailed:
		var p PageFailedPayload
		if e.Decode(&p) == nil {
			s.FailedPages = append(s.FailedPages, p.Route)
		}
	case TypeRunCompleted:
		var p RunCompletedPayload
		if e.Decode(&p) == nil {
			s.Generated = p.Generated
			s.Duration = time.Duration(p.DurationMS) * time.Millisecond
			s.Status = StatusCompleted
			if p.Skipped {
				s.Status = StatusSkipped
			}
		}
		finish(s, e)
	case TypeRunFailed:
		var p RunFailedPayload
		if e.Decode(&p) == nil {
			s.Error = p.Error
		}
		s.Status = StatusFailed
		finish(s, e)
	}
}

func finish(s *RunSummary, e *Event) {
	t := e.Timestamp
	s.CompletedAt = &t
	if s.Duration == 0 {
		s.Duration = t.Sub(s.StartedAt)
	}
}

// Recent returns up to limit summaries of runs recorded in the last window.
func Recent(ctx context.Context, store Store, window time.Duration, limit int) ([]*RunSummary, error) {
	end := time.Now().Add(time.Minute)
	start := time.Time{}
	if window > 0 {
		start = end.Add(-window)
	}
	events, err := store.Range(ctx, start, end)
	if err != nil {
		return nil, err
	}
	runs := Summarize(events)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
