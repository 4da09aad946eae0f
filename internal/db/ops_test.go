package db

import (
	"context"
	"testing"
	"time"

	"airtag-presence/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var DBPool *DB

// Setup the testcontainer DB before running any ops tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	DBPool, err = Init(ctx, Config{ConnString: connStr})
	if err != nil {
		panic(err)
	}

	m.Run()

	DBPool.Close()
	pgContainer.Terminate(ctx)
}

func TestRecordAndLoadEvents(t *testing.T) {
	ctx := context.Background()
	now := int64(1000000)
	lat, lon, acc := 52.37, 4.89, 8.0
	events := []DeviceEvent{
		{DeviceID: "dev1", EventType: EventHome, Timestamp: now},
		{DeviceID: "dev1", EventType: EventLocation, Timestamp: now + 1, Latitude: &lat, Longitude: &lon, Accuracy: &acc},
		{DeviceID: "dev2", EventType: EventNotHome, Timestamp: now + 1},
	}

	require.NoError(t, DBPool.RecordEvents(ctx, events))

	got, err := DBPool.LoadEventsBetween(ctx, "dev1", now, now+1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events[0], got[0])
	assert.Equal(t, events[1], got[1])

	got, err = DBPool.LoadEventsBetween(ctx, "dev1", now+2, now+10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPollStateStore(t *testing.T) {
	ctx := context.Background()
	store := DBPool.PollStateStore()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.LastCompletedAt.IsZero())

	later := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, state.PollState{LastCompletedAt: later}))
	require.NoError(t, store.Save(ctx, state.PollState{LastCompletedAt: later.Add(-time.Hour)}))

	st, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, later, st.LastCompletedAt)
}
