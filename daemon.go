package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"airtag-presence/internal/api"
	"airtag-presence/internal/bus"
	"airtag-presence/internal/bus/kafka"
	"airtag-presence/internal/bus/mqtt"
	"airtag-presence/internal/bus/nats"
	"airtag-presence/internal/config"
	"airtag-presence/internal/db"
	"airtag-presence/internal/identity"
	"airtag-presence/internal/processors/poller"
	"airtag-presence/internal/processors/scan"
	"airtag-presence/internal/processors/staleness"
	"airtag-presence/internal/registry"
	"airtag-presence/internal/reports"
	"airtag-presence/internal/scanner"
	"airtag-presence/internal/state"
)

const shutdownTimeout = 10 * time.Second

// loadKeysets reads every credential file, in AirTags order.
func loadKeysets(cfg *config.Config) ([]*identity.Keyset, error) {
	keysets := make([]*identity.Keyset, 0, len(cfg.AirTags))
	for _, tag := range cfg.AirTags {
		ks, err := identity.LoadKeyset(tag.CredentialPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag.ID, err)
		}
		keysets = append(keysets, ks)
	}
	return keysets, nil
}

func loadTargets(cfg *config.Config) ([]scan.Target, error) {
	keysets, err := loadKeysets(cfg)
	if err != nil {
		return nil, err
	}
	targets := make([]scan.Target, 0, len(keysets))
	for i, ks := range keysets {
		targets = append(targets, scan.Target{ID: cfg.AirTags[i].ID, Fingerprint: ks})
		slog.Debug("Loaded credential", "device_id", cfg.AirTags[i].ID, "name", ks.Name(), "keys", ks.Size())
	}
	return targets, nil
}

func accessoryOf(tag config.AirTag) string {
	if tag.ReportAccessory != "" {
		return tag.ReportAccessory
	}
	return tag.ID
}

func reportDevices(cfg *config.Config) []reports.Device {
	devices := make([]reports.Device, 0, len(cfg.AirTags))
	for _, tag := range cfg.AirTags {
		devices = append(devices, reports.Device{ID: tag.ID, Accessory: accessoryOf(tag)})
	}
	return devices
}

func newBus(cfg *config.Config) bus.Bus {
	switch cfg.Bus.Kind {
	case config.BusKafka:
		return kafka.New(kafka.Config{
			Brokers: cfg.Bus.Kafka.Brokers,
			Topic:   cfg.Bus.Kafka.Topic,
		})
	case config.BusNATS:
		return nats.New(nats.Config{
			URL:     cfg.Bus.NATS.URL,
			Timeout: cfg.CallTimeout,
		})
	default:
		return mqtt.New(mqtt.Config{
			Broker:   cfg.Bus.MQTT.Broker,
			Port:     cfg.Bus.MQTT.Port,
			Username: cfg.Bus.MQTT.Username,
			Password: cfg.Bus.MQTT.Password,
			ClientID: cfg.Bus.MQTT.ClientID,
			Timeout:  cfg.CallTimeout,
		})
	}
}

func bleAvailability(ids []string, availability string) []bus.Message {
	msgs := make([]bus.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, bus.BLEAvailabilityMessage(id, availability))
	}
	return msgs
}

func runDaemon(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "Starting service...", "devices", cfg.DeviceIDs(), "bus", cfg.Bus.Kind, "state", cfg.State.Kind)

	targets, err := loadTargets(cfg)
	if err != nil {
		return err
	}
	reg, err := registry.New(cfg.DeviceIDs(), time.Now())
	if err != nil {
		return err
	}
	b := newBus(cfg)

	scanCfg := scan.Config{
		Scanner:     scanner.NewBluetooth(scanner.Config{Adapter: cfg.BLE.Adapter}),
		Bus:         b,
		Registry:    reg,
		Targets:     targets,
		Window:      cfg.BLE.ScanDuration,
		Interval:    cfg.BLE.ScanInterval,
		CallTimeout: cfg.CallTimeout,
	}
	stalenessCfg := staleness.Config{
		Bus:         b,
		Registry:    reg,
		Threshold:   cfg.BLE.UnseenThreshold,
		Interval:    cfg.BLE.CheckInterval,
		CallTimeout: cfg.CallTimeout,
	}
	pollerCfg := poller.Config{
		Source: reports.NewHTTPSource(reports.HTTPConfig{
			BaseURL: cfg.ReportSource.URL,
			Token:   cfg.ReportSource.Token,
		}),
		Bus:         b,
		Devices:     reportDevices(cfg),
		Interval:    cfg.PollingInterval,
		Lookback:    cfg.ReportSource.Lookback,
		CallTimeout: cfg.CallTimeout,
	}
	apiCfg := api.Config{Devices: reg}

	switch cfg.State.Kind {
	case config.StatePostgres:
		database, err := db.Init(ctx, db.Config{
			ConnString:     cfg.State.PostgresURL,
			MigrationsPath: cfg.State.MigrationsPath,
		})
		if err != nil {
			return err
		}
		defer database.Close()
		pollerCfg.Store = database.PollStateStore()
		pollerCfg.Timeline = database
		scanCfg.Timeline = database
		stalenessCfg.Timeline = database
		apiCfg.DB = database
	default:
		pollerCfg.Store = state.NewFileStore(cfg.State.Path)
	}

	if err := bus.PublishBatch(ctx, b, cfg.CallTimeout, bleAvailability(reg.IDs(), bus.Online)...); err != nil {
		slog.ErrorContext(ctx, "Error publishing ble availability", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Go(func() {
			if err := fn(runCtx); err != nil {
				slog.ErrorContext(runCtx, "Loop stopped", "loop", name, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}
		})
	}

	run("scan", scan.New(scanCfg).Run)
	run("staleness", staleness.New(stalenessCfg).Run)
	run("poller", poller.New(pollerCfg).Run)

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.New(apiCfg).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		run("http", func(ctx context.Context) error {
			return serveHTTP(ctx, srv)
		})
	}

	wg.Wait()

	shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer done()
	if err := bus.PublishBatch(shutdownCtx, b, cfg.CallTimeout, bleAvailability(reg.IDs(), bus.Offline)...); err != nil {
		slog.ErrorContext(shutdownCtx, "Error publishing ble availability", "error", err)
	}
	reg.Dump()
	slog.InfoContext(shutdownCtx, "Service stopped")
	return errors.Join(errs...)
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}
