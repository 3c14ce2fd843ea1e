// Package notify publishes generation outcomes to NATS JetStream.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/panorama/internal/generate"
	"git.home.luguber.info/inful/panorama/internal/logfields"
)

// Event types published on the subject.
const (
	TypeRunCompleted = "RunCompleted"
	TypeRunFailed    = "RunFailed"
)

// RunEvent is the JSON message published when a run ends.
type RunEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	OutputDir  string    `json:"output_dir,omitempty"`
	Routes     int       `json:"routes"`
	Generated  int       `json:"generated"`
	Errors     int       `json:"errors"`
	Skipped    bool      `json:"skipped,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Publisher sends a message to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Notifier publishes run outcomes. Publish failures are logged, never returned.
type Notifier struct {
	pub     Publisher
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

var _ generate.Observer = (*Notifier)(nil)

func NewNotifier(pub Publisher, subject string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		pub:     pub,
		subject: subject,
		timeout: timeout,
		logger:  slog.Default().With("component", "notify"),
	}
}

func (n *Notifier) RunStarted(context.Context, string)                     {}
func (n *Notifier) RoutesEnumerated(context.Context, string, []string)     {}
func (n *Notifier) PageFailed(context.Context, string, generate.PageError) {}

func (n *Notifier) RunCompleted(ctx context.Context, runID string, res *generate.Result) {
	n.publish(ctx, RunEvent{
		Type:       TypeRunCompleted,
		RunID:      runID,
		Timestamp:  time.Now().UTC(),
		OutputDir:  res.OutputDir,
		Routes:     len(res.Routes),
		Generated:  len(res.Generated),
		Errors:     len(res.Errors),
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
	})
}

func (n *Notifier) RunFailed(ctx context.Context, runID string, err error) {
	n.publish(ctx, RunEvent{
		Type:      TypeRunFailed,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Error:     err.Error(),
	})
}

func (n *Notifier) publish(ctx context.Context, ev RunEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("Failed to encode run event", logfields.RunID(ev.RunID), logfields.Error(err))
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(pctx, n.subject, data); err != nil {
		n.logger.Warn("Failed to publish run event",
			logfields.RunID(ev.RunID), logfields.Subject(n.subject), logfields.Event(ev.Type), logfields.Error(err))
		return
	}
	n.logger.Debug("Published run event", logfields.RunID(ev.RunID), logfields.Subject(n.subject), logfields.Event(ev.Type))
}
