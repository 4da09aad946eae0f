package staleness

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"airtag-presence/internal/bus"
	"airtag-presence/internal/db"
	"airtag-presence/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func Test_Check(t *testing.T) {
	threshold := 300 * time.Second
	notHomeKeys := bus.StateMessage("keys", bus.StateNotHome)
	notHomeBag := bus.StateMessage("bag", bus.StateNotHome)

	cases := []struct {
		name          string
		setupRegistry func(*registry.Registry)
		now           time.Time
		setupBus      func() bus.Bus
		setupTimeline func() timeline
		expectedErr   error
	}{
		{
			name: "nothing stale publishes nothing",
			setupRegistry: func(r *registry.Registry) {
				_, _ = r.MarkSeen("keys", t0.Add(200*time.Second))
				_, _ = r.MarkSeen("bag", t0.Add(200*time.Second))
			},
			now: t0.Add(301 * time.Second),
			setupBus: func() bus.Bus {
				return bus.NewMockBus(t)
			},
			setupTimeline: func() timeline { return NewMocktimeline(t) },
		},
		{
			name: "stale device is sent not_home",
			setupRegistry: func(r *registry.Registry) {
				_, _ = r.MarkSeen("keys", t0)
				_, _ = r.MarkSeen("bag", t0.Add(200*time.Second))
			},
			now: t0.Add(301 * time.Second),
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, notHomeKeys).Return(nil).Once()
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline {
				tl := NewMocktimeline(t)
				tl.EXPECT().RecordEvents(mock.Anything, []db.DeviceEvent{
					{DeviceID: "keys", EventType: db.EventNotHome, Timestamp: t0.Add(301 * time.Second).UnixMilli()},
				}).Return(nil)
				return tl
			},
		},
		{
			name: "already away is republished but not recorded",
			setupRegistry: func(r *registry.Registry) {
				r.Evaluate(t0.Add(400*time.Second), threshold)
			},
			now: t0.Add(500 * time.Second),
			setupBus: func() bus.Bus {
				conn := bus.NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, notHomeKeys).Return(nil).Once()
				conn.EXPECT().Publish(mock.Anything, notHomeBag).Return(nil).Once()
				conn.EXPECT().Close().Return(nil)
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			setupTimeline: func() timeline { return NewMocktimeline(t) },
		},
		{
			name: "bus down",
			setupRegistry: func(r *registry.Registry) {
				r.Evaluate(t0.Add(400*time.Second), threshold)
			},
			now: t0.Add(500 * time.Second),
			setupBus: func() bus.Bus {
				b := bus.NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(nil, fmt.Errorf("test:%w", bus.ErrConnect))
				return b
			},
			setupTimeline: func() timeline { return NewMocktimeline(t) },
			expectedErr:   bus.ErrConnect,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := registry.New([]string{"keys", "bag"}, t0)
			require.NoError(t, err)
			tt.setupRegistry(reg)

			s := New(Config{
				Bus:         tt.setupBus(),
				Registry:    reg,
				Timeline:    tt.setupTimeline(),
				Threshold:   threshold,
				CallTimeout: time.Second,
				Now:         func() time.Time { return tt.now },
			})
			err = s.Check(context.Background())
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

// recordingBus captures published messages for loop-level tests.
type recordingBus struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (b *recordingBus) Connect(ctx context.Context) (bus.Conn, error) { return b, nil }
func (b *recordingBus) Close() error                                  { return nil }
func (b *recordingBus) Publish(ctx context.Context, msg bus.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *recordingBus) published() []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bus.Message(nil), b.msgs...)
}

func Test_RunHonoursGracePeriod(t *testing.T) {
	threshold := 50 * time.Millisecond
	started := time.Now()
	reg, err := registry.New([]string{"keys"}, started)
	require.NoError(t, err)

	rb := &recordingBus{}
	s := New(Config{
		Bus:         rb,
		Registry:    reg,
		Threshold:   threshold,
		Interval:    10 * time.Millisecond,
		CallTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(threshold / 2)
	assert.Empty(t, rb.published(), "no device may be reported away during the grace period")

	assert.Eventually(t, func() bool {
		return len(rb.published()) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	msgs := rb.published()
	assert.Equal(t, bus.StateMessage("keys", bus.StateNotHome), msgs[0])
	d, _ := reg.Get("keys")
	assert.Equal(t, registry.Away, d.Presence)
}
