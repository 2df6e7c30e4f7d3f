// Package sweeper runs periodic cleanup jobs.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes stale records and reports how many went.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SweepFunc adapts a function to Sweeper.
type SweepFunc func(ctx context.Context) (int64, error)

// SweepExpired calls f.
func (f SweepFunc) SweepExpired(ctx context.Context) (int64, error) {
	return f(ctx)
}

// Run sweeps once immediately and then on every tick until ctx is done.
func Run(ctx context.Context, s Sweeper, every time.Duration, logger *slog.Logger) {
	sweep(ctx, s, logger)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, s, logger)
		}
	}
}

func sweep(ctx context.Context, s Sweeper, logger *slog.Logger) {
	n, err := s.SweepExpired(ctx)
	if err != nil {
		logger.Error("Sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("Swept expired records", "count", n)
	}
}
