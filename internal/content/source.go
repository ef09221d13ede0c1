// Package content loads the portfolio document that backs every display section.
package content

import (
	"context"
	"errors"

	"github.com/ashureev/portfolio/internal/domain"
)

var (
	// ErrNotFound is returned when the source holds no portfolio document.
	ErrNotFound = errors.New("portfolio document not found")
	// ErrUnavailable wraps every fetch failure surfaced by Client.
	ErrUnavailable = errors.New("portfolio content unavailable")
)

// Source fetches one ContentSnapshot. Implementations must return a fresh value
// on every call; callers never mutate it.
type Source interface {
	Fetch(ctx context.Context) (*domain.ContentSnapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*domain.ContentSnapshot, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) (*domain.ContentSnapshot, error) {
	return f(ctx)
}
