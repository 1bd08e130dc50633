package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper deletes sessions whose TTL has elapsed
type SessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// Cleaner handles periodic removal of expired sessions
type Cleaner struct {
	sweeper  SessionSweeper
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(sweeper SessionSweeper, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run sweeps immediately, then on every tick until ctx is cancelled
func (c *Cleaner) Run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	deleted, err := c.sweeper.DeleteExpiredSessions(ctx)
	if err != nil {
		slog.Error("failed to delete expired sessions", "error", err)
		return
	}

	if deleted == 0 {
		slog.Debug("no expired sessions found")
		return
	}

	slog.Info("expired sessions deleted", "count", deleted)
}
