package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airtag-presence/internal/state"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"
)

var (
	ErrInsertFailed           = errors.New("insert operation failed")
	ErrTransactionStartFailed = errors.New("transaction start failed")
	ErrSelectFailed           = errors.New("select operation failed")
)

// RecordEvents appends events to the timeline in one transaction.
func (db *DB) RecordEvents(ctx context.Context, events []DeviceEvent) (err error) {
	const fn = "DB:RecordEvents"
	if len(events) == 0 {
		return nil
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrTransactionStartFailed, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	for _, event := range events {
		_, err = tx.Exec(ctx, `
			INSERT INTO device_events (
				device_id,
				event_type,
				timestamp,
				latitude,
				longitude,
				accuracy
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, event.DeviceID, event.EventType, event.Timestamp, event.Latitude, event.Longitude, event.Accuracy)
		if err != nil {
			return fmt.Errorf("%s:%w:%w", fn, ErrInsertFailed, err)
		}
	}
	return nil
}

// LoadEventsBetween returns a device's events with start <= timestamp <= end
// (unix milliseconds), oldest first.
func (db *DB) LoadEventsBetween(ctx context.Context, deviceID string, start, end int64) ([]DeviceEvent, error) {
	const fn = "DB:LoadEventsBetween"
	events := []DeviceEvent{}
	err := pgxscan.Select(ctx, db.pool, &events, `
			SELECT
				device_id,
				event_type,
				timestamp,
				latitude,
				longitude,
				accuracy
			FROM device_events
			WHERE device_id = $1
			AND timestamp >= $2
			AND timestamp <= $3
			ORDER BY timestamp ASC, id ASC
		`, deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrSelectFailed, err)
	}
	return events, nil
}

// PollStateStore adapts the poll_state table to state.Store.
type PollStateStore struct {
	db *DB
}

func (db *DB) PollStateStore() *PollStateStore {
	return &PollStateStore{db: db}
}

func (s *PollStateStore) Load(ctx context.Context) (state.PollState, error) {
	const fn = "PollStateStore:Load"
	var lastCompleted int64
	err := s.db.pool.QueryRow(ctx, `SELECT last_completed_at FROM poll_state WHERE id = 1`).Scan(&lastCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return state.PollState{}, nil
		}
		return state.PollState{}, fmt.Errorf("%s:%w:%w", fn, state.ErrLoadState, err)
	}
	if lastCompleted <= 0 {
		return state.PollState{}, nil
	}
	return state.PollState{LastCompletedAt: time.UnixMilli(lastCompleted).UTC()}, nil
}

// Save never moves the stored timestamp backwards.
func (s *PollStateStore) Save(ctx context.Context, st state.PollState) error {
	const fn = "PollStateStore:Save"
	_, err := s.db.pool.Exec(ctx, `
			INSERT INTO poll_state (id, last_completed_at) VALUES (1, $1)
			ON CONFLICT (id) DO UPDATE
			SET last_completed_at = GREATEST(poll_state.last_completed_at, EXCLUDED.last_completed_at)
		`, st.LastCompletedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, state.ErrSaveState, err)
	}
	return nil
}
