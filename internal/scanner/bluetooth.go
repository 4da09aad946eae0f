package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

type Config struct {
	// Adapter is the HCI adapter id, e.g. "hci1". Empty selects the default.
	Adapter string
}

// Bluetooth scans through the host's BLE adapter.
type Bluetooth struct {
	adapter *bluetooth.Adapter
	once    sync.Once
	err     error
	now     func() time.Time
}

func NewBluetooth(cfg Config) *Bluetooth {
	return &Bluetooth{adapter: adapterFor(cfg.Adapter), now: time.Now}
}

func (b *Bluetooth) enable() error {
	b.once.Do(func() {
		b.err = b.adapter.Enable()
	})
	return b.err
}

func (b *Bluetooth) Scan(ctx context.Context, handle func(Beacon) bool) error {
	const fn = "Bluetooth:Scan"
	if err := b.enable(); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrScan, err)
	}

	stop := sync.OnceFunc(func() {
		if err := b.adapter.StopScan(); err != nil {
			slog.DebugContext(ctx, "Error stopping scan", "error", err)
		}
	})
	go func() {
		<-ctx.Done()
		stop()
	}()

	err := b.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		if ctx.Err() != nil {
			stop()
			return
		}
		beacon, ok := b.toBeacon(result)
		if !ok {
			return
		}
		if !handle(beacon) {
			stop()
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrScan, err)
	}
	return nil
}

func (b *Bluetooth) toBeacon(result bluetooth.ScanResult) (Beacon, bool) {
	addr, err := net.ParseMAC(result.Address.String())
	if err != nil {
		return Beacon{}, false
	}
	data := make(map[uint16][]byte)
	for _, el := range result.ManufacturerData() {
		data[el.CompanyID] = el.Data
	}
	return b.stamp(Beacon{
		Address:          addr,
		ManufacturerData: data,
		RSSI:             result.RSSI,
	}), true
}

// stamp keeps the clock's monotonic reading so staleness is immune to wall
// clock steps.
func (b *Bluetooth) stamp(beacon Beacon) Beacon {
	beacon.DetectedAt = b.now()
	return beacon
}
