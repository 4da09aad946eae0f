package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"airtag-presence/internal/bus"
	"airtag-presence/internal/db"
	"airtag-presence/internal/identity"
	"airtag-presence/internal/registry"
	"airtag-presence/internal/scanner"
	"airtag-presence/internal/worker"
)

var ErrScanWindow = errors.New("scan window failed")

// Target is a device the scan loop looks for.
type Target struct {
	ID          string
	Fingerprint identity.Fingerprint
}

type deviceRegistry interface {
	MarkSeen(id string, at time.Time) (registry.Transition, error)
}

type timeline interface {
	RecordEvents(ctx context.Context, events []db.DeviceEvent) error
}

type Config struct {
	Scanner     scanner.Scanner
	Bus         bus.Bus
	Registry    deviceRegistry
	Timeline    timeline
	Targets     []Target
	Window      time.Duration
	Interval    time.Duration
	CallTimeout time.Duration
}

type Scan struct {
	worker      *worker.Worker
	scanner     scanner.Scanner
	bus         bus.Bus
	registry    deviceRegistry
	timeline    timeline
	targets     []Target
	window      time.Duration
	interval    time.Duration
	callTimeout time.Duration
}

func New(cfg Config) *Scan {
	s := &Scan{
		scanner:     cfg.Scanner,
		bus:         cfg.Bus,
		registry:    cfg.Registry,
		timeline:    cfg.Timeline,
		targets:     cfg.Targets,
		window:      cfg.Window,
		interval:    cfg.Interval,
		callTimeout: cfg.CallTimeout,
	}
	s.worker = worker.New(worker.Config{
		Name:      "scan-worker",
		Processor: s,
	})
	return s
}

func (s *Scan) Run(ctx context.Context) error {
	return s.worker.Run(ctx)
}

// Process runs one scan window and then waits out the scan interval.
func (s *Scan) Process(ctx context.Context) error {
	err := s.ScanOnce(ctx)
	worker.Sleep(ctx, s.interval)
	return err
}

// ScanOnce listens for one window and publishes home for every target
// sighted in it. Each target matches at most once per window; the window
// closes early once every target has been seen.
func (s *Scan) ScanOnce(ctx context.Context) error {
	const fn = "Scan:ScanOnce"
	conn, err := bus.Dial(ctx, s.bus, s.callTimeout)
	if err != nil {
		slog.WarnContext(ctx, "Bus unavailable, sightings will not be published", "error", err)
		conn = nil
	} else {
		defer conn.Close()
	}

	unmatched := slices.Clone(s.targets)
	var events []db.DeviceEvent

	windowCtx, cancel := context.WithTimeout(ctx, s.window)
	defer cancel()
	err = s.scanner.Scan(windowCtx, func(b scanner.Beacon) bool {
		i := slices.IndexFunc(unmatched, func(t Target) bool {
			return t.Fingerprint.Recognizes(b)
		})
		if i < 0 {
			return true
		}
		target := unmatched[i]
		unmatched = slices.Delete(unmatched, i, i+1)
		if event, ok := s.markHome(ctx, conn, target.ID, b.DetectedAt); ok {
			events = append(events, event)
		}
		return len(unmatched) > 0
	})
	s.record(ctx, events)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrScanWindow, err)
	}
	slog.DebugContext(ctx, "Scan window closed", "matched", len(s.targets)-len(unmatched), "unmatched", len(unmatched))
	return nil
}

func (s *Scan) markHome(ctx context.Context, conn bus.Conn, id string, at time.Time) (db.DeviceEvent, bool) {
	tr, err := s.registry.MarkSeen(id, at)
	if err != nil {
		slog.InfoContext(ctx, "Sighting rejected", "device_id", id, "detected_at", at, "error", err)
		return db.DeviceEvent{}, false
	}
	if conn != nil {
		_ = bus.Send(ctx, conn, s.callTimeout, bus.StateMessage(id, bus.StateHome))
	}
	if tr.Previous == registry.Home {
		return db.DeviceEvent{}, false
	}
	slog.InfoContext(ctx, "Device arrived", "device_id", id, "previous", tr.Previous)
	return db.DeviceEvent{DeviceID: id, EventType: db.EventHome, Timestamp: at.UnixMilli()}, true
}

func (s *Scan) record(ctx context.Context, events []db.DeviceEvent) {
	if s.timeline == nil || len(events) == 0 {
		return
	}
	if err := s.timeline.RecordEvents(ctx, events); err != nil {
		slog.ErrorContext(ctx, "Error recording sightings", "error", err)
	}
}
