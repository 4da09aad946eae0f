// Package nats publishes bus messages as NATS core messages. Topic separators
// become subject tokens, so "keys/state" is published on "keys.state".
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airtag-presence/internal/bus"

	"github.com/nats-io/nats.go"
)

// RetainHeader is set on messages a late subscriber should be able to
// replay, for bridges that emulate MQTT retained messages.
const RetainHeader = "Retain"

type Config struct {
	URL     string
	Timeout time.Duration
}

type Bus struct {
	cfg Config
}

func New(cfg Config) *Bus {
	return &Bus{cfg: cfg}
}

func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	const fn = "NATS:Connect"
	opts := []nats.Option{nats.Name("airtag-presence"), nats.NoReconnect()}
	if b.cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(b.cfg.Timeout))
	}
	nc, err := nats.Connect(b.cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, bus.ErrConnect, err)
	}
	slog.DebugContext(ctx, "Connected to NATS", "url", nc.ConnectedUrl())
	return &conn{nc: nc, timeout: b.cfg.Timeout}, nil
}

type conn struct {
	nc      *nats.Conn
	timeout time.Duration
}

func (c *conn) Publish(ctx context.Context, msg bus.Message) error {
	const fn = "NATS:Publish"
	if err := c.nc.PublishMsg(toMsg(msg)); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, bus.ErrPublish, err)
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, bus.ErrPublish, err)
	}
	return nil
}

func (c *conn) Close() error {
	c.nc.Close()
	return nil
}

func Subject(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func toMsg(msg bus.Message) *nats.Msg {
	m := nats.NewMsg(Subject(msg.Topic))
	m.Data = msg.Payload
	if msg.Retain {
		m.Header.Set(RetainHeader, "true")
	}
	return m
}
