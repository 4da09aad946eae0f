package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrFatal marks a processor error that must stop the worker.
var ErrFatal = errors.New("fatal processor error")

type Config struct {
	Name      string
	Processor Processor
}

// Processor runs one cycle of a loop. It owns its own pacing.
type Processor interface {
	Process(ctx context.Context) error
}

type Worker struct {
	name      string
	processor Processor
}

func New(cfg Config) *Worker {
	return &Worker{
		name:      cfg.Name,
		processor: cfg.Processor,
	}
}

// Run calls the processor until ctx is cancelled. Cycle errors are logged and
// the loop continues, unless the error wraps ErrFatal.
func (w *Worker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Worker started...", "worker", w.name)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Worker stopped...", "worker", w.name)
			return nil
		default:
			err := w.processor.Process(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			if errors.Is(err, ErrFatal) {
				slog.ErrorContext(ctx, "Worker failed", "worker", w.name, "error", err)
				return err
			}
			slog.WarnContext(ctx, "Worker cycle failed", "worker", w.name, "error", err)
		}
	}
}

// Sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
