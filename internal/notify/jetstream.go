package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

// JetStreamPublisher publishes to a JetStream stream.
type JetStreamPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewJetStreamPublisher connects to cfg.NATSURL and makes sure a stream named
// cfg.Stream captures cfg.Subject.
func NewJetStreamPublisher(ctx context.Context, cfg config.NotifyConfig) (*JetStreamPublisher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("panorama"), nats.Timeout(timeout))
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").
			WithCause(err).WithContext("url", cfg.NATSURL).Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NotifyError("failed to create JetStream context").WithCause(err).Build()
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Panorama generation run events",
		Subjects:    []string{cfg.Subject},
		MaxAge:      30 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, errors.NotifyError("failed to ensure JetStream stream").
			WithCause(err).WithContext("stream", cfg.Stream).Build()
	}

	slog.Info("NATS notifications enabled", "url", cfg.NATSURL, "stream", cfg.Stream, "subject", cfg.Subject)
	return &JetStreamPublisher{conn: conn, js: js}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
