package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/shared"
	_ "modernc.org/sqlite"
)

const counterVisitors = "visitors"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	chatMu sync.Mutex // serializes chat record writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS visitors (
		visitor_id TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_records (
		record_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		last_activity INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_records_activity ON chat_records(last_activity);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visitor_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		message TEXT NOT NULL,
		submitted_at INTEGER NOT NULL,
		delivered_at INTEGER
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetVisitor retrieves a visitor by id.
func (s *SQLiteStore) GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT visitor_id, last_seen_at, created_at FROM visitors WHERE visitor_id = ?`, visitorID)

	var v domain.Visitor
	var lastSeen, createdAt int64
	err := row.Scan(&v.VisitorID, &lastSeen, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan visitor row: %w", err)
	}
	v.LastSeenAt = time.Unix(lastSeen, 0)
	v.CreatedAt = time.Unix(createdAt, 0)
	return &v, nil
}

// TouchVisitor creates or refreshes a visitor record.
func (s *SQLiteStore) TouchVisitor(ctx context.Context, visitorID string, seen time.Time) error {
	query := `
	INSERT INTO visitors (visitor_id, last_seen_at, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT(visitor_id) DO UPDATE SET
		last_seen_at = excluded.last_seen_at`

	if _, err := s.db.ExecContext(ctx, query, visitorID, seen.Unix(), seen.Unix()); err != nil {
		return fmt.Errorf("touch visitor: %w", err)
	}
	return nil
}

// GetChatRecord returns the serialized chat session stored under key.
func (s *SQLiteStore) GetChatRecord(ctx context.Context, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM chat_records WHERE record_key = ?`, key)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat record: %w", err)
	}
	return []byte(payload), nil
}

// PutChatRecord overwrites the whole record stored under key.
func (s *SQLiteStore) PutChatRecord(ctx context.Context, key string, data []byte, lastActivity time.Time) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	query := `
	INSERT INTO chat_records (record_key, payload, last_activity, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(record_key) DO UPDATE SET
		payload = excluded.payload,
		last_activity = excluded.last_activity,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, key, string(data), lastActivity.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put chat record: %w", err)
	}
	return nil
}

// DeleteChatRecord removes the record stored under key.
// Retries with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) DeleteChatRecord(ctx context.Context, key string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.deleteChatRecordOnce(ctx, key)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
		slog.Debug("DeleteChatRecord failed with SQLITE_BUSY, retrying",
			"record_key", key,
			"attempt", i+1,
			"delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed to delete chat record %s after %d attempts: %w", key, maxRetries, err)
}

func (s *SQLiteStore) deleteChatRecordOnce(ctx context.Context, key string) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_records WHERE record_key = ?`, key); err != nil {
		return fmt.Errorf("delete chat record: %w", err)
	}
	return nil
}

// CleanupExpiredChatRecords removes chat records idle for longer than ttl.
func (s *SQLiteStore) CleanupExpiredChatRecords(ctx context.Context, ttl time.Duration) (int64, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_records WHERE last_activity <= ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired chat records: %w", err)
	}
	return result.RowsAffected()
}

// IncrementVisitorCount adds one to the visitor counter.
func (s *SQLiteStore) IncrementVisitorCount(ctx context.Context) (int64, error) {
	query := `
	INSERT INTO counters (name, value) VALUES (?, 1)
	ON CONFLICT(name) DO UPDATE SET value = counters.value + 1
	RETURNING value`

	var value int64
	if err := s.db.QueryRowContext(ctx, query, counterVisitors).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment visitor count: %w", err)
	}
	return value, nil
}

// VisitorCount returns the visitor counter.
func (s *SQLiteStore) VisitorCount(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, counterVisitors).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read visitor count: %w", err)
	}
	return value, nil
}

// SaveContactMessage appends a contact submission to the outbox.
func (s *SQLiteStore) SaveContactMessage(ctx context.Context, msg *domain.ContactMessage) error {
	var visitorID interface{}
	if msg.VisitorID != "" {
		visitorID = msg.VisitorID
	}

	query := `
	INSERT INTO contact_messages (visitor_id, name, email, message, submitted_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, visitorID, msg.Name, msg.Email, msg.Message, msg.SubmittedAt.Unix())
	if err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	return nil
}

// PendingContactMessages returns outbox entries that have not been marked delivered.
func (s *SQLiteStore) PendingContactMessages(ctx context.Context) ([]*domain.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(visitor_id, ''), name, email, message, submitted_at
		FROM contact_messages WHERE delivered_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close contact message rows", "error", closeErr)
		}
	}()

	var msgs []*domain.ContactMessage
	for rows.Next() {
		var m domain.ContactMessage
		var submittedAt int64
		if err := rows.Scan(&m.VisitorID, &m.Name, &m.Email, &m.Message, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan contact message row: %w", err)
		}
		m.SubmittedAt = time.Unix(submittedAt, 0)
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact messages: %w", err)
	}
	return msgs, nil
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)
