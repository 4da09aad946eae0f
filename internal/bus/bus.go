// Package bus describes the home-automation message bus the tracker
// publishes to, independent of the transport behind it.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	StateHome    = "home"
	StateNotHome = "not_home"

	Online  = "online"
	Offline = "offline"
)

var (
	ErrConnect = errors.New("bus connect failed")
	ErrPublish = errors.New("bus publish failed")
)

type Message struct {
	Topic   string
	Payload []byte
	Retain  bool
}

// Bus hands out connections scoped to one publish batch.
type Bus interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is released with Close on every exit path.
type Conn interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

func AttributesTopic(id string) string      { return id + "/attributes" }
func GPSAvailabilityTopic(id string) string { return id + "_gps/availability" }
func StateTopic(id string) string           { return id + "/state" }
func BLEAvailabilityTopic(id string) string { return id + "_ble/availability" }

// Attributes is the payload of the attributes topic.
type Attributes struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	GPSAccuracy    float64   `json:"gps_accuracy"`
	LastReportTime time.Time `json:"last_report_time"`
	BroadcastTime  time.Time `json:"broadcast_time"`
}

func StateMessage(id, state string) Message {
	return Message{Topic: StateTopic(id), Payload: []byte(state)}
}

func GPSAvailabilityMessage(id, availability string) Message {
	return Message{Topic: GPSAvailabilityTopic(id), Payload: []byte(availability)}
}

func BLEAvailabilityMessage(id, availability string) Message {
	return Message{Topic: BLEAvailabilityTopic(id), Payload: []byte(availability), Retain: true}
}

func AttributesMessage(id string, attrs Attributes) (Message, error) {
	const fn = "Bus:AttributesMessage"
	payload, err := json.Marshal(attrs)
	if err != nil {
		return Message{}, fmt.Errorf("%s:%w", fn, err)
	}
	return Message{Topic: AttributesTopic(id), Payload: payload}, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Dial connects with its own deadline so a hung broker cannot stall a loop.
func Dial(ctx context.Context, b Bus, timeout time.Duration) (Conn, error) {
	dialCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	return b.Connect(dialCtx)
}

func Send(ctx context.Context, c Conn, timeout time.Duration, msg Message) error {
	sendCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := c.Publish(sendCtx, msg); err != nil {
		slog.WarnContext(ctx, "Error publishing message", "topic", msg.Topic, "error", err)
		return err
	}
	slog.InfoContext(ctx, "Published message", "topic", msg.Topic, "payload", string(msg.Payload))
	return nil
}

// PublishBatch sends msgs over one connection that lives only for this call.
// Every message is attempted; failures are joined.
func PublishBatch(ctx context.Context, b Bus, timeout time.Duration, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	conn, err := Dial(ctx, b, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	var errs []error
	for _, msg := range msgs {
		if err := Send(ctx, conn, timeout, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
