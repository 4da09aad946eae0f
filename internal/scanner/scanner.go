// Package scanner turns BLE advertisements into Beacons.
package scanner

import (
	"context"
	"errors"
	"net"
	"time"
)

var ErrScan = errors.New("ble scan failed")

// Beacon is one received advertisement.
type Beacon struct {
	Address          net.HardwareAddr
	ManufacturerData map[uint16][]byte
	RSSI             int16
	DetectedAt       time.Time
}

// Scanner delivers beacons to handle until ctx is done or handle returns
// false.
type Scanner interface {
	Scan(ctx context.Context, handle func(Beacon) bool) error
}
