//go:build !linux

package scanner

import (
	"log/slog"

	"tinygo.org/x/bluetooth"
)

// Adapter selection by id is a BlueZ feature.
func adapterFor(id string) *bluetooth.Adapter {
	if id != "" {
		slog.Warn("Ignoring ble adapter id on this platform", "adapter", id)
	}
	return bluetooth.DefaultAdapter
}
