package staleness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airtag-presence/internal/bus"
	"airtag-presence/internal/db"
	"airtag-presence/internal/registry"
	"airtag-presence/internal/worker"
)

type deviceRegistry interface {
	Evaluate(now time.Time, threshold time.Duration) []registry.Transition
}

type timeline interface {
	RecordEvents(ctx context.Context, events []db.DeviceEvent) error
}

type Config struct {
	Bus         bus.Bus
	Registry    deviceRegistry
	Timeline    timeline
	Threshold   time.Duration
	Interval    time.Duration
	CallTimeout time.Duration
	Now         func() time.Time
}

// Staleness demotes devices that have not been sighted within the threshold.
type Staleness struct {
	worker      *worker.Worker
	bus         bus.Bus
	registry    deviceRegistry
	timeline    timeline
	threshold   time.Duration
	interval    time.Duration
	callTimeout time.Duration
	now         func() time.Time
}

func New(cfg Config) *Staleness {
	s := &Staleness{
		bus:         cfg.Bus,
		registry:    cfg.Registry,
		timeline:    cfg.Timeline,
		threshold:   cfg.Threshold,
		interval:    cfg.Interval,
		callTimeout: cfg.CallTimeout,
		now:         cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.worker = worker.New(worker.Config{
		Name:      "staleness-worker",
		Processor: s,
	})
	return s
}

// Run waits one threshold before the first check so that no device is
// reported away before the scan loop had a chance to see it.
func (s *Staleness) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Staleness grace period...", "duration", s.threshold)
	if !worker.Sleep(ctx, s.threshold) {
		return nil
	}
	return s.worker.Run(ctx)
}

func (s *Staleness) Process(ctx context.Context) error {
	err := s.Check(ctx)
	worker.Sleep(ctx, s.interval)
	return err
}

// Check publishes not_home for every stale device. Devices that stay stale
// are republished on every check.
func (s *Staleness) Check(ctx context.Context) error {
	const fn = "Staleness:Check"
	stale := s.registry.Evaluate(s.now(), s.threshold)
	if len(stale) == 0 {
		return nil
	}

	msgs := make([]bus.Message, 0, len(stale))
	var events []db.DeviceEvent
	for _, tr := range stale {
		msgs = append(msgs, bus.StateMessage(tr.ID, bus.StateNotHome))
		if tr.Previous != registry.Away {
			slog.InfoContext(ctx, "Device left", "device_id", tr.ID, "previous", tr.Previous)
			events = append(events, db.DeviceEvent{DeviceID: tr.ID, EventType: db.EventNotHome, Timestamp: tr.At.UnixMilli()})
		}
	}
	if s.timeline != nil && len(events) > 0 {
		if err := s.timeline.RecordEvents(ctx, events); err != nil {
			slog.ErrorContext(ctx, "Error recording departures", "error", err)
		}
	}
	if err := bus.PublishBatch(ctx, s.bus, s.callTimeout, msgs...); err != nil {
		return fmt.Errorf("%s:%w", fn, err)
	}
	return nil
}
