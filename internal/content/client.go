package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ashureev/portfolio/internal/domain"
	"golang.org/x/sync/singleflight"
)

const fetchKey = "portfolio"

// State is what a page consumes after a load: the snapshot, or a non-nil Error.
// Loading is always false once Load returns.
type State struct {
	Data    *domain.ContentSnapshot `json:"data"`
	Loading bool                    `json:"loading"`
	Error   error                   `json:"-"`
}

// Client fetches snapshots from a Source. Concurrent callers share one in-flight
// fetch; a new fetch is issued once the previous one has completed.
type Client struct {
	source  Source
	logger  *slog.Logger
	group   singleflight.Group
	fetches atomic.Int64
}

// NewClient creates a client over source.
func NewClient(source Source, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{source: source, logger: logger}
}

// Fetch returns a snapshot or an error wrapping ErrUnavailable.
// A caller whose ctx ends early gets ctx.Err(); the shared fetch keeps running
// for the others.
func (c *Client) Fetch(ctx context.Context) (*domain.ContentSnapshot, error) {
	ch := c.group.DoChan(fetchKey, func() (any, error) {
		c.fetches.Add(1)
		return c.source.Fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Error("Failed to fetch portfolio content", "error", res.Err, "shared", res.Shared)
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
		}
		snap, _ := res.Val.(*domain.ContentSnapshot)
		if snap == nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrNotFound)
		}
		return snap, nil
	}
}

// Load fetches and folds the outcome into a State. It never panics or returns
// a partially populated snapshot.
func (c *Client) Load(ctx context.Context) State {
	snap, err := c.Fetch(ctx)
	if err != nil {
		return State{Error: err}
	}
	return State{Data: snap}
}

// Fetches reports how many fetches reached the source.
func (c *Client) Fetches() int64 {
	return c.fetches.Load()
}
