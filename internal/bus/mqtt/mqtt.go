// Package mqtt publishes bus messages to an MQTT broker, the transport Home
// Assistant's MQTT integration listens on.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airtag-presence/internal/bus"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	qos          = 1
	quiesceMilli = 250
)

type Config struct {
	Broker   string
	Port     int
	Username string
	Password string
	ClientID string
	Timeout  time.Duration
}

type Bus struct {
	cfg       Config
	newClient func(*paho.ClientOptions) paho.Client
}

func New(cfg Config) *Bus {
	return &Bus{
		cfg:       cfg,
		newClient: paho.NewClient,
	}
}

func (b *Bus) brokerURL() string {
	if strings.Contains(b.cfg.Broker, "://") {
		return b.cfg.Broker
	}
	return fmt.Sprintf("tcp://%s:%d", b.cfg.Broker, b.cfg.Port)
}

func (b *Bus) clientID() string {
	prefix := b.cfg.ClientID
	if prefix == "" {
		prefix = "airtag-presence"
	}
	return prefix + "-" + uuid.NewString()[:8]
}

// Connect opens a fresh MQTT session. Every batch gets its own client id so
// concurrent loops never kick each other off the broker.
func (b *Bus) Connect(ctx context.Context) (bus.Conn, error) {
	const fn = "MQTT:Connect"
	opts := paho.NewClientOptions().
		AddBroker(b.brokerURL()).
		SetClientID(b.clientID()).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(false).
		SetCleanSession(true)
	if b.cfg.Timeout > 0 {
		opts.SetConnectTimeout(b.cfg.Timeout)
	}

	client := b.newClient(opts)
	if err := wait(ctx, client.Connect()); err != nil {
		// An abandoned attempt may still complete in the background.
		client.Disconnect(quiesceMilli)
		return nil, fmt.Errorf("%s:%w:%w", fn, bus.ErrConnect, err)
	}
	slog.DebugContext(ctx, "Connected to MQTT broker", "broker", b.brokerURL())
	return &conn{client: client}, nil
}

type conn struct {
	client paho.Client
}

func (c *conn) Publish(ctx context.Context, msg bus.Message) error {
	const fn = "MQTT:Publish"
	if err := wait(ctx, c.client.Publish(msg.Topic, qos, msg.Retain, msg.Payload)); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, bus.ErrPublish, err)
	}
	return nil
}

func (c *conn) Close() error {
	c.client.Disconnect(quiesceMilli)
	return nil
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
