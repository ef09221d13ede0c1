// Package grounding builds the text the assistant is primed with and answers
// section lookups against the cached portfolio snapshot.
package grounding

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
)

// NotAvailable is returned by FormatSection before a snapshot is cached.
const NotAvailable = "Portfolio data not available."

// ErrNoSnapshot is returned by Initialize when the cached fetch produced no snapshot.
var ErrNoSnapshot = errors.New("portfolio snapshot not available")

// result is a fetch shared by every caller that attached to it.
type result struct {
	done chan struct{}
	snap *domain.ContentSnapshot
	err  error
}

func (r *result) resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Context memoizes one snapshot for the process lifetime. The first Initialize
// starts the fetch; later callers attach to the same result whether it is still
// pending or already resolved, including a failed one, until Reset.
type Context struct {
	source content.Source
	logger *slog.Logger

	mu      sync.Mutex
	current *result
}

// NewContext creates a context backed by source.
func NewContext(source content.Source, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{source: source, logger: logger}
}

// Initialize returns the cached snapshot, fetching it on first use.
// A caller whose ctx ends first returns ctx.Err() without affecting the fetch.
func (c *Context) Initialize(ctx context.Context) (*domain.ContentSnapshot, error) {
	c.mu.Lock()
	r := c.current
	if r == nil {
		r = &result{done: make(chan struct{})}
		c.current = r
		go c.fetch(context.WithoutCancel(ctx), r)
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.snap, nil
}

func (c *Context) fetch(ctx context.Context, r *result) {
	defer close(r.done)

	snap, err := c.source.Fetch(ctx)
	if err == nil && snap == nil {
		err = ErrNoSnapshot
	}
	if err != nil {
		c.logger.Error("Failed to initialize portfolio context", "error", err)
		r.err = err
		return
	}
	r.snap = snap
}

// Snapshot returns the cached snapshot without fetching.
func (c *Context) Snapshot() *domain.ContentSnapshot {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()

	if r == nil || !r.resolved() {
		return nil
	}
	return r.snap
}

// Ready reports whether a snapshot is cached.
func (c *Context) Ready() bool {
	return c.Snapshot() != nil
}

// Failed reports whether the cached fetch resolved with an error.
func (c *Context) Failed() bool {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	return r != nil && r.resolved() && r.err != nil
}

// Reset drops the cached result so the next Initialize fetches again.
// Callers already waiting keep the result they attached to.
func (c *Context) Reset() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.logger.Info("Portfolio context reset")
}

// ResetIfFailed drops a cached failure, leaving a cached snapshot in place.
func (c *Context) ResetIfFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.current
	if r == nil || !r.resolved() || r.err == nil {
		return false
	}
	c.current = nil
	return true
}

// ExtractLinks partitions the cached snapshot's links.
func (c *Context) ExtractLinks() Links {
	return ExtractLinks(c.Snapshot())
}

// FormatSection renders one section of the cached snapshot.
func (c *Context) FormatSection(section domain.Section) string {
	snap := c.Snapshot()
	if snap == nil {
		return NotAvailable
	}
	return FormatSection(snap, section)
}
