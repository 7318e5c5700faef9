// internal/adapter/messaging/nats.go

package messaging

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"iwitness/internal/config"
)

// Connect opens a NATS connection with the configured reconnect policy
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(
		cfg.URL,
		nats.Name("iwitness"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	return conn, nil
}

// Bus publishes session events and hands them back to subscribers
type Bus struct {
	conn *nats.Conn
}

// NewBus wraps an open connection
func NewBus(conn *nats.Conn) *Bus {
	return &Bus{conn: conn}
}

// Publish sends data on subject
func (b *Bus) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// Subscribe calls handler for every message on subject, which may contain
// wildcards. The returned func removes the subscription.
func (b *Bus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("error subscribing to %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
