// Package kafka mirrors bus messages onto a single Kafka topic, keyed by the
// bus topic, for deployments that bridge Home Assistant through Kafka.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"airtag-presence/internal/bus"

	"github.com/segmentio/kafka-go"
)

const retainHeader = "retain"

type Config struct {
	Brokers []string
	Topic   string
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Bus struct {
	cfg       Config
	dial      func(ctx context.Context, broker string) error
	newWriter func() Writer
}

func New(cfg Config) *Bus {
	b := &Bus{cfg: cfg, dial: dialBroker}
	b.newWriter = func() Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			Balancer: &kafka.Hash{},
		})
	}
	return b
}

func dialBroker(ctx context.Context, broker string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Connect checks that at least one broker answers before handing out a
// writer; kafka-go writers otherwise connect lazily on first write.
func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	const fn = "Kafka:Connect"
	var lastErr error
	for _, broker := range b.cfg.Brokers {
		if lastErr = b.dial(ctx, broker); lastErr == nil {
			slog.DebugContext(ctx, "Broker is ready", "broker", broker)
			return &conn{writer: b.newWriter()}, nil
		}
		slog.DebugContext(ctx, "Broker not ready", "broker", broker, "error", lastErr)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return nil, fmt.Errorf("%s:%w:%w", fn, bus.ErrConnect, lastErr)
}

type conn struct {
	writer Writer
}

func (c *conn) Publish(ctx context.Context, msg bus.Message) error {
	const fn = "Kafka:Publish"
	m := kafka.Message{Key: []byte(msg.Topic), Value: msg.Payload}
	if msg.Retain {
		m.Headers = []kafka.Header{{Key: retainHeader, Value: []byte("true")}}
	}
	if err := c.writer.WriteMessages(ctx, m); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, bus.ErrPublish, err)
	}
	return nil
}

func (c *conn) Close() error {
	return c.writer.Close()
}
