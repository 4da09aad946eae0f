package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airtag-presence/internal/bus"
	"airtag-presence/internal/db"
	"airtag-presence/internal/reports"
	"airtag-presence/internal/state"
	"airtag-presence/internal/worker"

	"github.com/cenkalti/backoff/v5"
)

const (
	persistInitialBackoff = 500 * time.Millisecond
	persistMaxBackoff     = 10 * time.Second
	persistMaxElapsed     = 2 * time.Minute
)

var ErrPersistState = errors.New("persist poll state failed")

type timeline interface {
	RecordEvents(ctx context.Context, events []db.DeviceEvent) error
}

type Config struct {
	Source      reports.Source
	Bus         bus.Bus
	Store       state.Store
	Timeline    timeline
	Devices     []reports.Device
	Interval    time.Duration
	Lookback    time.Duration
	CallTimeout time.Duration
	Now         func() time.Time
}

// Poller publishes each device's best recent location report once per
// interval. The interval is measured from the last completed poll, which is
// persisted so restarts neither skip nor repeat a poll.
type Poller struct {
	worker      *worker.Worker
	source      reports.Source
	bus         bus.Bus
	store       state.Store
	timeline    timeline
	devices     []reports.Device
	interval    time.Duration
	lookback    time.Duration
	callTimeout time.Duration
	now         func() time.Time
	newBackOff  func() backoff.BackOff
	maxElapsed  time.Duration
	maxTries    uint

	lastCompleted time.Time
}

func New(cfg Config) *Poller {
	p := &Poller{
		source:      cfg.Source,
		bus:         cfg.Bus,
		store:       cfg.Store,
		timeline:    cfg.Timeline,
		devices:     cfg.Devices,
		interval:    cfg.Interval,
		lookback:    cfg.Lookback,
		callTimeout: cfg.CallTimeout,
		now:         cfg.Now,
		maxElapsed:  persistMaxElapsed,
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.newBackOff = func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = persistInitialBackoff
		bo.MaxInterval = persistMaxBackoff
		return bo
	}
	p.worker = worker.New(worker.Config{
		Name:      "poller-worker",
		Processor: p,
	})
	return p
}

// SleepDuration is how long to wait before the next poll. A missed poll
// yields zero; a last poll in the future (clock moved back) waits at most
// one interval.
func SleepDuration(now, lastCompleted time.Time, interval time.Duration) time.Duration {
	d := interval - now.Sub(lastCompleted)
	if d < 0 {
		return 0
	}
	if d > interval {
		return interval
	}
	return d
}

// Run loads the persisted poll state and polls until ctx is done or the
// state can no longer be persisted.
func (p *Poller) Run(ctx context.Context) error {
	const fn = "Poller:Run"
	st, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, worker.ErrFatal, err)
	}
	p.lastCompleted = st.LastCompletedAt
	slog.InfoContext(ctx, "Loaded poll state", "last_completed_at", p.lastCompleted)
	return p.worker.Run(ctx)
}

func (p *Poller) Process(ctx context.Context) error {
	d := SleepDuration(p.now(), p.lastCompleted, p.interval)
	slog.InfoContext(ctx, "Sleeping until next poll...", "duration", d)
	if !worker.Sleep(ctx, d) {
		return nil
	}
	return p.Poll(ctx)
}

// Poll fetches, reconciles and publishes every device, then persists the
// completion time once for the whole cycle.
func (p *Poller) Poll(ctx context.Context) error {
	const fn = "Poller:Poll"
	started := p.now().UTC()

	var msgs []bus.Message
	var events []db.DeviceEvent
	for _, device := range p.devices {
		m, e := p.pollDevice(ctx, device, started)
		msgs = append(msgs, m...)
		events = append(events, e...)
	}

	if err := bus.PublishBatch(ctx, p.bus, p.callTimeout, msgs...); err != nil {
		slog.ErrorContext(ctx, "Error publishing poll results", "error", err)
	}
	if p.timeline != nil && len(events) > 0 {
		if err := p.timeline.RecordEvents(ctx, events); err != nil {
			slog.ErrorContext(ctx, "Error recording poll results", "error", err)
		}
	}

	completed := started
	if completed.Before(p.lastCompleted) {
		completed = p.lastCompleted
	}
	if err := p.persist(ctx, state.PollState{LastCompletedAt: completed}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s:%w:%w:%w", fn, worker.ErrFatal, ErrPersistState, err)
	}
	p.lastCompleted = completed
	slog.InfoContext(ctx, "Poll completed", "devices", len(p.devices), "completed_at", completed)
	return nil
}

// pollDevice never fails: a fetch error degrades to "no report" for this
// device only.
func (p *Poller) pollDevice(ctx context.Context, device reports.Device, now time.Time) ([]bus.Message, []db.DeviceEvent) {
	fetchCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.callTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, p.callTimeout)
	}
	found, err := p.source.Fetch(fetchCtx, device, now.Add(-p.lookback), now)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "Error fetching location reports", "device_id", device.ID, "error", err)
		found = nil
	}

	report, ok := reports.Select(found)
	if !ok {
		slog.WarnContext(ctx, "No location reports found", "device_id", device.ID, "lookback", p.lookback)
		return []bus.Message{bus.GPSAvailabilityMessage(device.ID, bus.Offline)},
			[]db.DeviceEvent{{DeviceID: device.ID, EventType: db.EventOffline, Timestamp: now.UnixMilli()}}
	}

	attrs, err := bus.AttributesMessage(device.ID, bus.Attributes{
		Latitude:       report.Latitude,
		Longitude:      report.Longitude,
		GPSAccuracy:    report.Confidence,
		LastReportTime: report.ObservedAt,
		BroadcastTime:  now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Error encoding location report", "device_id", device.ID, "error", err)
		return []bus.Message{bus.GPSAvailabilityMessage(device.ID, bus.Offline)}, nil
	}
	slog.InfoContext(ctx, "Selected location report", "device_id", device.ID, "candidates", len(found), "observed_at", report.ObservedAt, "confidence", report.Confidence)
	return []bus.Message{attrs, bus.GPSAvailabilityMessage(device.ID, bus.Online)},
		[]db.DeviceEvent{{
			DeviceID:  device.ID,
			EventType: db.EventLocation,
			Timestamp: report.ObservedAt.UnixMilli(),
			Latitude:  &report.Latitude,
			Longitude: &report.Longitude,
			Accuracy:  &report.Confidence,
		}}
}

func (p *Poller) persist(ctx context.Context, st state.PollState) error {
	operation := func() (struct{}, error) {
		return struct{}{}, p.store.Save(ctx, st)
	}
	notify := func(err error, next time.Duration) {
		slog.WarnContext(ctx, "Error persisting poll state, retrying", "error", err, "next_attempt_in", next)
	}
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxElapsedTime(p.maxElapsed),
		backoff.WithMaxTries(p.maxTries),
		backoff.WithNotify(notify),
	)
	return err
}
