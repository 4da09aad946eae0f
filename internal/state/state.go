// Package state persists the scheduler's last completed poll so the poll
// interval survives restarts.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	ErrLoadState = errors.New("load poll state failed")
	ErrSaveState = errors.New("save poll state failed")
)

type PollState struct {
	LastCompletedAt time.Time
}

type Store interface {
	Load(ctx context.Context) (PollState, error)
	Save(ctx context.Context, s PollState) error
}

type fileRecord struct {
	LastUpdateTime float64 `json:"last_update_time"`
}

// FileStore keeps the poll state in a small JSON file. A sibling lock file
// keeps two processes from interleaving writes.
type FileStore struct {
	path string
	lock *flock.Flock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Load returns the zero PollState when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) (PollState, error) {
	const fn = "FileStore:Load"
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PollState{}, nil
		}
		return PollState{}, fmt.Errorf("%s:%w:%w", fn, ErrLoadState, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PollState{}, fmt.Errorf("%s:%w:%w", fn, ErrLoadState, err)
	}
	if rec.LastUpdateTime <= 0 {
		return PollState{}, nil
	}
	sec := int64(rec.LastUpdateTime)
	nsec := int64((rec.LastUpdateTime - float64(sec)) * float64(time.Second))
	return PollState{LastCompletedAt: time.Unix(sec, nsec).UTC()}, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated record behind.
func (s *FileStore) Save(ctx context.Context, st PollState) error {
	const fn = "FileStore:Save"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	// Never wait on the lock; the caller decides whether to retry.
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	if !locked {
		return fmt.Errorf("%s:%w:state file is locked", fn, ErrSaveState)
	}
	defer s.lock.Unlock()

	data, err := json.Marshal(fileRecord{LastUpdateTime: float64(st.LastCompletedAt.Unix())})
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveState, err)
	}
	return nil
}
