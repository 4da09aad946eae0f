// Package registry owns the presence state of every tracked device. The scan
// loop and the staleness loop only ever touch that state through the
// registry's methods, which serialise on a single mutex.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrUnknownDevice     = errors.New("unknown device")
	ErrUnorderedSighting = errors.New("out of order sighting")
	ErrDuplicateDevice   = errors.New("duplicate device")
)

type Presence int

const (
	Unknown Presence = iota
	Home
	Away
)

func (p Presence) String() string {
	switch p {
	case Home:
		return "home"
	case Away:
		return "away"
	default:
		return "unknown"
	}
}

func (p Presence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// TrackedDevice is a read-only copy of one device's state.
type TrackedDevice struct {
	ID         string    `json:"id"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Presence   Presence  `json:"presence"`
}

// Transition is a presence change applied by the registry.
type Transition struct {
	ID       string
	Previous Presence
	Current  Presence
	At       time.Time
}

type Registry struct {
	mu      sync.Mutex
	order   []string
	devices map[string]*TrackedDevice
}

// New registers ids in order. Every device starts Unknown with lastSeenAt set
// to startedAt, so staleness is measured from process start until the first
// sighting.
func New(ids []string, startedAt time.Time) (*Registry, error) {
	const fn = "Registry:New"
	r := &Registry{
		order:   make([]string, 0, len(ids)),
		devices: make(map[string]*TrackedDevice, len(ids)),
	}
	for _, id := range ids {
		if _, exists := r.devices[id]; exists {
			return nil, fmt.Errorf("%s:%w:%s", fn, ErrDuplicateDevice, id)
		}
		r.order = append(r.order, id)
		r.devices[id] = &TrackedDevice{ID: id, LastSeenAt: startedAt, Presence: Unknown}
	}
	return r, nil
}

// MarkSeen records a sighting and marks the device Home. A sighting older
// than the recorded one is rejected and changes nothing.
func (r *Registry) MarkSeen(id string, at time.Time) (Transition, error) {
	const fn = "Registry:MarkSeen"
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.devices[id]
	if !exists {
		return Transition{}, fmt.Errorf("%s:%w:%s", fn, ErrUnknownDevice, id)
	}
	if at.Before(d.LastSeenAt) {
		return Transition{}, fmt.Errorf("%s:%w:%s", fn, ErrUnorderedSighting, id)
	}
	t := Transition{ID: id, Previous: d.Presence, Current: Home, At: at}
	d.LastSeenAt = at
	d.Presence = Home
	return t, nil
}

// Evaluate demotes every device whose last sighting is more than threshold
// before now and returns one transition per stale device, including devices
// that were already Away.
func (r *Registry) Evaluate(now time.Time, threshold time.Duration) []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []Transition
	for _, id := range r.order {
		d := r.devices[id]
		if now.Sub(d.LastSeenAt) <= threshold {
			continue
		}
		stale = append(stale, Transition{ID: id, Previous: d.Presence, Current: Away, At: now})
		d.Presence = Away
	}
	return stale
}

func (r *Registry) Get(id string) (TrackedDevice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, exists := r.devices[id]
	if !exists {
		return TrackedDevice{}, false
	}
	return *d, true
}

// Snapshot returns copies of all devices in registration order.
func (r *Registry) Snapshot() []TrackedDevice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TrackedDevice, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.devices[id])
	}
	return out
}

func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Dump() {
	for _, d := range r.Snapshot() {
		slog.Info("Registry Dump", "device_id", d.ID, "presence", d.Presence, "last_seen_at", d.LastSeenAt)
	}
}
