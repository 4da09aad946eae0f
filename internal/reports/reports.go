// Package reports fetches crowd-sourced location reports and reconciles a
// window of them into the single report worth publishing.
package reports

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"
)

var (
	ErrFetchReports = errors.New("fetch reports failed")
	ErrDecodeReport = errors.New("decode reports failed")
)

type LocationReport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Confidence is the accuracy radius in metres; smaller is more precise.
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"timestamp"`
}

// Device identifies what to fetch reports for. ID names the bus topics;
// Accessory names the device at the report relay.
type Device struct {
	ID        string
	Accessory string
}

type Source interface {
	Fetch(ctx context.Context, device Device, start, end time.Time) ([]LocationReport, error)
}

// compare orders reports by observation time, then by precision so that of
// two simultaneous reports the more precise one sorts last. Coordinates break
// any remaining tie so the order is total.
func compare(a, b LocationReport) int {
	if c := a.ObservedAt.Compare(b.ObservedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Latitude, b.Latitude); c != 0 {
		return c
	}
	return cmp.Compare(a.Longitude, b.Longitude)
}

// Select returns the most recent report, preferring the most precise among
// reports observed at the same instant. It reports false for an empty set.
func Select(reports []LocationReport) (LocationReport, bool) {
	if len(reports) == 0 {
		return LocationReport{}, false
	}
	return slices.MaxFunc(reports, compare), true
}
