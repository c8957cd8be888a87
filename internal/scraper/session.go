package scraper

import (
	"context"
	"errors"
	"log/slog"

	"iconscrape/internal/checkpoint"

	"golang.org/x/sync/errgroup"
)

// Session runs a Scraper alongside the checkpoint Writer that persists its
// store.
type Session struct {
	Scraper *Scraper
	Writer  *checkpoint.Writer
}

// Run opens the catalog and resolves list while the writer checkpoints in
// the background. The writer is stopped and a final flush is written on
// every exit path: completion, a failed Open, cancellation or a panic.
func (s *Session) Run(ctx context.Context, list []string) (sum Summary, err error) {
	writerCtx, stopWriter := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(writerCtx)
	g.Go(func() error {
		return s.Writer.Run(gctx)
	})

	defer func() {
		stopWriter()
		if werr := g.Wait(); werr != nil {
			slog.Warn("checkpoint writer stopped", "err", werr)
		}
		if ferr := s.Writer.Flush(context.WithoutCancel(ctx)); ferr != nil {
			slog.Error("final checkpoint failed", "err", ferr)
			err = errors.Join(err, ferr)
		}
	}()

	if err := s.Scraper.Open(ctx); err != nil {
		return sum, err
	}
	return s.Scraper.Run(ctx, list), nil
}
