package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"airtag-presence/internal/bus"
	"airtag-presence/internal/db"
	"airtag-presence/internal/registry"
	"airtag-presence/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type fingerprintFunc func(scanner.Beacon) bool

func (f fingerprintFunc) Recognizes(b scanner.Beacon) bool { return f(b) }

func macFingerprint(mac string) fingerprintFunc {
	return func(b scanner.Beacon) bool { return b.Address.String() == mac }
}

func beacon(mac string, at time.Time) scanner.Beacon {
	addr, _ := net.ParseMAC(mac)
	return scanner.Beacon{Address: addr, DetectedAt: at}
}

const (
	keysMAC  = "c1:00:00:00:00:01"
	bagMAC   = "c1:00:00:00:00:02"
	otherMAC = "c1:00:00:00:00:99"
)

var targets = []Target{
	{ID: "keys", Fingerprint: macFingerprint(keysMAC)},
	{ID: "bag", Fingerprint: macFingerprint(bagMAC)},
}

// replay feeds beacons to the handler and records how many were consumed.
func replay(beacons []scanner.Beacon, consumed *int, scanErr error) func(context.Context, func(scanner.Beacon) bool) error {
	return func(ctx context.Context, handle func(scanner.Beacon) bool) error {
		for _, b := range beacons {
			*consumed++
			if !handle(b) {
				return nil
			}
		}
		return scanErr
	}
}

func Test_ScanOnce(t *testing.T) {
	homeKeys := bus.StateMessage("keys", bus.StateHome)
	homeBag := bus.StateMessage("bag", bus.StateHome)

	cases := []struct {
		name             string
		setupRegistry    func(*registry.Registry)
		beacons          []scanner.Beacon
		scanErr          error
		setupBus         func() bus.Bus
		setupTimeline    func() timeline
		expectedErr      error
		expectedConsumed int
		expectedPresence map[string]registry.Presence
	}{
		{
			name: "window ends early once every target matched",
			beacons: []scanner.Beacon{
				beacon(otherMAC, t0.Add(time.Second)),
				beacon(keysMAC, t0.Add(2*time.Second)),
				beacon(keysMAC, t0.Add(3*time.Second)),
				beacon(bagMAC, t0.Add(4*time.Second)),
				beacon(otherMAC, t0.Add(5*time.Second)),
			},
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, homeKeys).Return(nil).Once()
				conn.EXPECT().Publish(mock.Anything, homeBag).Return(nil).Once()
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				tl := NewMocktimeline(t)
				tl.EXPECT().RecordEvents(mock.Anything, []db.DeviceEvent{
					{DeviceID: "keys", EventType: db.EventHome, Timestamp: t0.Add(2 * time.Second).UnixMilli()},
					{DeviceID: "bag", EventType: db.EventHome, Timestamp: t0.Add(4 * time.Second).UnixMilli()},
				}).Return(nil)
				return tl
			},
			expectedConsumed: 4,
			expectedPresence: map[string]registry.Presence{"keys": registry.Home, "bag": registry.Home},
		},
		{
			name: "away device is home again in the same cycle",
			setupRegistry: func(r *registry.Registry) {
				r.Evaluate(t0.Add(10*time.Minute), 5*time.Minute)
			},
			beacons: []scanner.Beacon{beacon(keysMAC, t0.Add(11*time.Minute))},
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, homeKeys).Return(nil).Once()
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				tl := NewMocktimeline(t)
				tl.EXPECT().RecordEvents(mock.Anything, []db.DeviceEvent{
					{DeviceID: "keys", EventType: db.EventHome, Timestamp: t0.Add(11 * time.Minute).UnixMilli()},
				}).Return(nil)
				return tl
			},
			expectedConsumed: 1,
			expectedPresence: map[string]registry.Presence{"keys": registry.Home, "bag": registry.Away},
		},
		{
			name: "device already home is republished but not recorded",
			setupRegistry: func(r *registry.Registry) {
				_, _ = r.MarkSeen("keys", t0.Add(time.Second))
			},
			beacons: []scanner.Beacon{beacon(keysMAC, t0.Add(time.Minute))},
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, homeKeys).Return(nil).Once()
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				return NewMocktimeline(t)
			},
			expectedConsumed: 1,
			expectedPresence: map[string]registry.Presence{"keys": registry.Home, "bag": registry.Unknown},
		},
		{
			name:    "bus down still updates the registry",
			beacons: []scanner.Beacon{beacon(bagMAC, t0.Add(time.Second))},
			setupBus: func() bus.Bus {
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(nil, fmt.Errorf("test:%w", bus.ErrConnect))
				return b
			},
			setupTimeline: func() timeline {
				tl := NewMocktimeline(t)
				tl.EXPECT().RecordEvents(mock.Anything, mock.Anything).Return(nil)
				return tl
			},
			expectedConsumed: 1,
			expectedPresence: map[string]registry.Presence{"keys": registry.Unknown, "bag": registry.Home},
		},
		{
			name:    "publish failure does not stop matching",
			beacons: []scanner.Beacon{beacon(keysMAC, t0.Add(time.Second)), beacon(bagMAC, t0.Add(2*time.Second))},
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, homeKeys).Return(fmt.Errorf("test:%w", bus.ErrPublish))
				conn.EXPECT().Publish(mock.Anything, homeBag).Return(nil)
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				tl := NewMocktimeline(t)
				tl.EXPECT().RecordEvents(mock.Anything, mock.Anything).Return(errors.New("db down"))
				return tl
			},
			expectedConsumed: 2,
			expectedPresence: map[string]registry.Presence{"keys": registry.Home, "bag": registry.Home},
		},
		{
			name:    "scanner failure",
			scanErr: errors.New("adapter gone"),
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				return NewMocktimeline(t)
			},
			expectedErr:      ErrScanWindow,
			expectedPresence: map[string]registry.Presence{"keys": registry.Unknown, "bag": registry.Unknown},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := registry.New([]string{"keys", "bag"}, t0)
			require.NoError(t, err)
			if tt.setupRegistry != nil {
				tt.setupRegistry(reg)
			}

			consumed := 0
			sc := scanner.NewMockScanner(t)
			sc.EXPECT().Scan(mock.Anything, mock.Anything).RunAndReturn(replay(tt.beacons, &consumed, tt.scanErr))

			s := New(Config{
				Scanner:     sc,
				Bus:         tt.setupBus(),
				Registry:    reg,
				Timeline:    tt.setupTimeline(),
				Targets:     targets,
				Window:      time.Second,
				Interval:    time.Millisecond,
				CallTimeout: time.Second,
			})

			err = s.ScanOnce(context.Background())
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedConsumed, consumed)
			for id, presence := range tt.expectedPresence {
				d, ok := reg.Get(id)
				require.True(t, ok)
				assert.Equal(t, presence, d.Presence, id)
			}
		})
	}
}

func Test_ScanWindowIsBounded(t *testing.T) {
	reg, err := registry.New([]string{"keys"}, t0)
	require.NoError(t, err)

	sc := scanner.NewMockScanner(t)
	sc.EXPECT().Scan(mock.Anything, mock.Anything).RunAndReturn(func(ctx context.Context, handle func(scanner.Beacon) bool) error {
		<-ctx.Done()
		return nil
	})
	conn := bus.NewMockConn(t)
	conn.EXPECT().Close().Return(nil)
	b := bus.NewMockBus(t)
	b.EXPECT().Connect(mock.Anything).Return(conn, nil)

	s := New(Config{
		Scanner:  sc,
		Bus:      b,
		Registry: reg,
		Targets:  targets[:1],
		Window:   20 * time.Millisecond,
	})

	started := time.Now()
	require.NoError(t, s.ScanOnce(context.Background()))
	assert.Less(t, time.Since(started), time.Second)
}
