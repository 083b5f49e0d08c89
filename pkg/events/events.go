// Package events publishes pipeline lifecycle events as JSON over core
// NATS. The publisher implements task.EventSink; delivery failures are
// logged and never fail the run.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/wehubfusion/Daedalus/pkg/task"
)

// DefaultSubject is the subject events are published to unless configured
// otherwise.
const DefaultSubject = "daedalus.runs"

// Config holds NATS connection settings for the publisher.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string

	// Name is the client name for identifying this connection
	Name string

	// Subject is the subject lifecycle events are published to
	Subject string

	// MaxReconnects is the maximum number of reconnection attempts
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration

	// Timeout is the connection timeout
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		Name:          "daedalus-events",
		Subject:       DefaultSubject,
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Publisher emits lifecycle events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// Connect establishes the NATS connection and returns a ready publisher.
func Connect(ctx context.Context, config Config, logger *zap.Logger) (*Publisher, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("NATS URL cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	subject := config.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.Timeout(config.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	type result struct {
		conn *nats.Conn
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		conn, err := nats.Connect(config.URL, opts...)
		resultCh <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", res.err)
		}
		return &Publisher{conn: res.conn, subject: subject, logger: logger}, nil
	}
}

// Emit publishes one lifecycle event. Implements task.EventSink; errors are
// logged, not returned, so event delivery can never abort a pipeline.
func (p *Publisher) Emit(_ context.Context, event task.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to encode event", zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("subject", p.subject),
			zap.String("kind", event.Kind),
			zap.Error(err))
		return
	}
	p.logger.Debug("Published event",
		zap.String("subject", p.subject),
		zap.String("run_id", event.RunID),
		zap.String("kind", event.Kind))
}

// Close drains the connection, allowing in-flight events to complete.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("error draining connection: %w", err)
	}
	return nil
}
