// Package janitor periodically removes chat state that has outlived the
// session timeout.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/portfolio/internal/shared"
)

const (
	// DefaultInterval is used when Options.Interval is zero.
	DefaultInterval = 5 * time.Minute

	maxRetries = 3
)

// Sweeper deletes stored chat records idle for longer than ttl.
type Sweeper interface {
	CleanupExpiredChatRecords(ctx context.Context, ttl time.Duration) (int64, error)
}

// Evicter forgets in-memory assistant state idle for longer than idle.
type Evicter interface {
	Evict(idle time.Duration) int
}

// Options configures a Janitor.
type Options struct {
	TTL       time.Duration
	Interval  time.Duration
	Evicter   Evicter
	Logger    *slog.Logger
	baseDelay time.Duration
}

// Janitor sweeps expired chat state on a ticker.
type Janitor struct {
	repo Sweeper
	opts Options
}

// New creates a janitor over repo.
func New(repo Sweeper, opts Options) *Janitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.baseDelay <= 0 {
		opts.baseDelay = 100 * time.Millisecond
	}
	return &Janitor{repo: repo, opts: opts}
}

// Start runs the janitor in a background goroutine until ctx ends.
func (j *Janitor) Start(ctx context.Context) {
	go j.Run(ctx)
}

// Run sweeps every interval until ctx ends.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.opts.Interval)
	defer ticker.Stop()
	j.opts.Logger.Info("Janitor started", "interval", j.opts.Interval, "ttl", j.opts.TTL)

	for {
		select {
		case <-ticker.C:
			j.Sweep(ctx)
		case <-ctx.Done():
			j.opts.Logger.Info("Janitor shutting down", "reason", ctx.Err())
			return
		}
	}
}

// Sweep performs one pass and reports how many stored records were removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	if j.opts.Evicter != nil {
		if n := j.opts.Evicter.Evict(j.opts.TTL); n > 0 {
			j.opts.Logger.Info("Janitor evicted idle assistants", "count", n)
		}
	}

	deleted, err := j.cleanupWithRetry(ctx)
	if err != nil {
		j.opts.Logger.Error("Janitor failed to clean up expired chat records", "error", err)
		return 0
	}
	if deleted > 0 {
		j.opts.Logger.Info("Janitor cleaned up expired chat records", "count", deleted)
	}
	return deleted
}

// cleanupWithRetry retries SQLITE_BUSY and locked errors with exponential backoff.
func (j *Janitor) cleanupWithRetry(ctx context.Context) (int64, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		var deleted int64
		deleted, err = j.repo.CleanupExpiredChatRecords(ctx, j.opts.TTL)
		if err == nil {
			return deleted, nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := j.opts.baseDelay * time.Duration(1<<i)
		j.opts.Logger.Debug("Chat record cleanup hit a locked database, retrying",
			"attempt", i+1,
			"delay", delay)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}
	}
	return 0, fmt.Errorf("cleanup expired chat records after retries: %w", err)
}
