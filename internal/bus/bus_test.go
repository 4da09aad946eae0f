package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_Topics(t *testing.T) {
	assert.Equal(t, "keys/attributes", AttributesTopic("keys"))
	assert.Equal(t, "keys_gps/availability", GPSAvailabilityTopic("keys"))
	assert.Equal(t, "keys/state", StateTopic("keys"))
	assert.Equal(t, "keys_ble/availability", BLEAvailabilityTopic("keys"))
}

func Test_Messages(t *testing.T) {
	assert.Equal(t, Message{Topic: "bag/state", Payload: []byte("not_home")}, StateMessage("bag", StateNotHome))
	assert.Equal(t, Message{Topic: "bag_gps/availability", Payload: []byte("offline")}, GPSAvailabilityMessage("bag", Offline))

	ble := BLEAvailabilityMessage("bag", Online)
	assert.True(t, ble.Retain)
	assert.Equal(t, "bag_ble/availability", ble.Topic)
}

func Test_AttributesMessage(t *testing.T) {
	reported := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := AttributesMessage("bag", Attributes{
		Latitude:       52.1,
		Longitude:      4.3,
		GPSAccuracy:    3,
		LastReportTime: reported,
		BroadcastTime:  reported.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "bag/attributes", msg.Topic)
	assert.False(t, msg.Retain)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, 52.1, decoded["latitude"])
	assert.Equal(t, 4.3, decoded["longitude"])
	assert.Equal(t, 3.0, decoded["gps_accuracy"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["last_report_time"])
	assert.Equal(t, "2026-03-01T12:01:00Z", decoded["broadcast_time"])
}

func Test_PublishBatch(t *testing.T) {
	home := StateMessage("keys", StateHome)
	away := StateMessage("bag", StateNotHome)

	cases := []struct {
		name        string
		msgs        []Message
		setupBus    func() Bus
		expectedErr error
	}{
		{
			name: "all published",
			msgs: []Message{home, away},
			setupBus: func() Bus {
				conn := NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, home).Return(nil)
				conn.EXPECT().Publish(mock.Anything, away).Return(nil)
				conn.EXPECT().Close().Return(nil)
				b := NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
		},
		{
			name: "one failure does not stop the batch",
			msgs: []Message{home, away},
			setupBus: func() Bus {
				conn := NewMockConn(t)
				conn.EXPECT().Publish(mock.Anything, home).Return(fmt.Errorf("test:%w", ErrPublish))
				conn.EXPECT().Publish(mock.Anything, away).Return(nil)
				conn.EXPECT().Close().Return(nil)
				b := NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(conn, nil)
				return b
			},
			expectedErr: ErrPublish,
		},
		{
			name: "connect failed",
			msgs: []Message{home},
			setupBus: func() Bus {
				b := NewMockBus(t)
				b.EXPECT().Connect(mock.Anything).Return(nil, fmt.Errorf("test:%w", ErrConnect))
				return b
			},
			expectedErr: ErrConnect,
		},
		{
			name: "nothing to publish",
			setupBus: func() Bus {
				return NewMockBus(t)
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := PublishBatch(context.Background(), tt.setupBus(), time.Second, tt.msgs...)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
