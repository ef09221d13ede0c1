// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
)

// Repository defines the interface for persisting visitor, chat and contact data.
type Repository interface {
	// GetVisitor retrieves a visitor by id. Returns nil, nil when absent.
	GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error)

	// TouchVisitor creates the visitor record if needed and refreshes last_seen_at.
	TouchVisitor(ctx context.Context, visitorID string, seen time.Time) error

	// GetChatRecord returns the serialized chat session stored under key.
	// Returns nil, nil when no record exists.
	GetChatRecord(ctx context.Context, key string) ([]byte, error)

	// PutChatRecord overwrites the whole record stored under key.
	PutChatRecord(ctx context.Context, key string, data []byte, lastActivity time.Time) error

	// DeleteChatRecord removes the record stored under key. Deleting a missing key is not an error.
	DeleteChatRecord(ctx context.Context, key string) error

	// CleanupExpiredChatRecords removes chat records idle for longer than ttl.
	CleanupExpiredChatRecords(ctx context.Context, ttl time.Duration) (int64, error)

	// IncrementVisitorCount adds one to the site visitor counter and returns the new value.
	IncrementVisitorCount(ctx context.Context) (int64, error)

	// VisitorCount returns the site visitor counter.
	VisitorCount(ctx context.Context) (int64, error)

	// SaveContactMessage appends a contact submission to the outbox.
	SaveContactMessage(ctx context.Context, msg *domain.ContactMessage) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
