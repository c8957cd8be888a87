package checkpoint

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"iconscrape/internal/results"
)

const DefaultInterval = 2 * time.Second

// Writer periodically persists the result store to its sinks until its
// context is cancelled.
type Writer struct {
	store    *results.Store
	interval time.Duration
	sinks    []Sink
}

func New(store *results.Store, interval time.Duration, sinks ...Sink) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Writer{store: store, interval: interval, sinks: sinks}
}

// Run writes a checkpoint every interval. Cycles with an empty store are
// skipped and sink failures are logged without stopping the loop. Run returns
// nil once ctx is done.
func (w *Writer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		snapshot := w.store.Snapshot()
		if len(snapshot) == 0 {
			continue
		}
		written := 0
		for _, sink := range w.sinks {
			if err := sink.Write(ctx, snapshot); err != nil {
				slog.WarnContext(ctx, "checkpoint failed", "entries", len(snapshot), "err", err)
				continue
			}
			written++
		}
		slog.DebugContext(ctx, "checkpoint written", "entries", len(snapshot), "sinks", written)
	}
}

// Flush writes the current state to every sink once, even if the store is
// empty, and reports every sink failure.
func (w *Writer) Flush(ctx context.Context) error {
	snapshot := w.store.Snapshot()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Write(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
