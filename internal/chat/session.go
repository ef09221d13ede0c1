// Package chat persists bounded assistant conversations.
//
// A Store owns exactly one storage key. Every Create and Append writes the whole
// record before returning, and storage failures are logged rather than returned:
// the conversation keeps going in memory for that turn.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/google/uuid"
)

// StorageKey prefixes every per-visitor record key.
const StorageKey = "portfolio_chat_session"

// Defaults applied when Options leaves a field zero.
const (
	DefaultMaxMessages = 30
	DefaultTimeout     = 24 * time.Hour
	NearLimitThreshold = 5
)

// Backend is the durable key/value storage a Store writes through.
type Backend interface {
	GetChatRecord(ctx context.Context, key string) ([]byte, error)
	PutChatRecord(ctx context.Context, key string, data []byte, lastActivity time.Time) error
	DeleteChatRecord(ctx context.Context, key string) error
}

// Options configures session limits.
type Options struct {
	MaxMessages int
	Timeout     time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxMessages <= 0 {
		o.MaxMessages = DefaultMaxMessages
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Sessions hands out Stores bound to individual storage keys.
type Sessions struct {
	backend Backend
	opts    Options
}

// NewSessions creates a factory over backend.
func NewSessions(backend Backend, opts Options) *Sessions {
	return &Sessions{backend: backend, opts: opts.withDefaults()}
}

// For returns the Store for one visitor.
func (s *Sessions) For(visitorID string) *Store {
	return &Store{backend: s.backend, opts: s.opts, key: KeyFor(visitorID)}
}

// MaxMessages returns the configured ceiling.
func (s *Sessions) MaxMessages() int { return s.opts.MaxMessages }

// Timeout returns the configured expiry window.
func (s *Sessions) Timeout() time.Duration { return s.opts.Timeout }

// KeyFor returns the storage key for a visitor.
func KeyFor(visitorID string) string {
	if visitorID == "" {
		return StorageKey
	}
	return StorageKey + ":" + visitorID
}

// Store persists the single conversation stored under one key.
// It assumes one writer; callers sequence Append calls themselves.
type Store struct {
	backend Backend
	opts    Options
	key     string
}

// Key returns the storage key this store writes.
func (s *Store) Key() string { return s.key }

// MaxMessages returns the ceiling.
func (s *Store) MaxMessages() int { return s.opts.MaxMessages }

// Load restores the stored session. It returns (nil, false) when nothing is
// stored, the record is unreadable, or the session has been idle for at least
// the timeout; the latter two clear the record.
func (s *Store) Load(ctx context.Context) (*domain.ChatSession, bool) {
	data, err := s.backend.GetChatRecord(ctx, s.key)
	if err != nil {
		s.opts.Logger.Error("Failed to load chat session", "key", s.key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var session domain.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		s.opts.Logger.Error("Failed to decode chat session", "key", s.key, "error", err)
		s.Clear(ctx)
		return nil, false
	}

	if s.opts.Now().Sub(session.LastActivity) >= s.opts.Timeout {
		s.opts.Logger.Info("Chat session expired", "key", s.key, "session_id", session.ID,
			"last_activity", session.LastActivity)
		s.Clear(ctx)
		return nil, false
	}

	if session.Messages == nil {
		session.Messages = []domain.ChatMessage{}
	}
	session.MessageCount = len(session.Messages)
	return &session, true
}

// HasValidSession reports whether Load would restore a session.
func (s *Store) HasValidSession(ctx context.Context) bool {
	session, ok := s.Load(ctx)
	return session != nil && ok
}

// Create persists and returns a new empty session.
func (s *Store) Create(ctx context.Context) *domain.ChatSession {
	now := s.opts.Now()
	session := &domain.ChatSession{
		ID:           newID("session"),
		Messages:     []domain.ChatMessage{},
		CreatedAt:    now,
		LastActivity: now,
	}
	s.save(ctx, session)
	return session
}

// Append returns a copy of session with msg appended, trimmed to the ceiling,
// and persisted. The greeting at index 0 and the newest messages survive a trim.
func (s *Store) Append(ctx context.Context, session *domain.ChatSession, msg domain.ChatMessage) *domain.ChatSession {
	next := session.Clone()
	if next == nil {
		next = s.Create(ctx)
	}

	next.Messages = append(next.Messages, msg)
	next.LastActivity = s.opts.Now()

	ceiling := s.opts.MaxMessages
	if len(next.Messages) > ceiling {
		trimmed := make([]domain.ChatMessage, 0, ceiling)
		trimmed = append(trimmed, next.Messages[0])
		trimmed = append(trimmed, next.Messages[len(next.Messages)-(ceiling-1):]...)
		next.Messages = trimmed
	}
	next.MessageCount = len(next.Messages)

	s.save(ctx, next)
	return next
}

// Clear removes the stored record. Clearing an absent record is a no-op.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.DeleteChatRecord(ctx, s.key); err != nil {
		s.opts.Logger.Error("Failed to clear chat session", "key", s.key, "error", err)
	}
}

// CanAppend reports whether the session is below the ceiling.
func (s *Store) CanAppend(session *domain.ChatSession) bool {
	return session != nil && session.MessageCount < s.opts.MaxMessages
}

// Remaining returns how many messages fit before the ceiling.
func (s *Store) Remaining(session *domain.ChatSession) int {
	if session == nil {
		return s.opts.MaxMessages
	}
	return max(0, s.opts.MaxMessages-session.MessageCount)
}

// Stats summarizes session for display.
func (s *Store) Stats(session *domain.ChatSession) domain.SessionStats {
	if session == nil {
		return domain.SessionStats{Remaining: s.opts.MaxMessages}
	}
	remaining := s.Remaining(session)
	return domain.SessionStats{
		MessageCount: session.MessageCount,
		Remaining:    remaining,
		AgeMinutes:   int(s.opts.Now().Sub(session.CreatedAt) / time.Minute),
		IsNearLimit:  remaining <= NearLimitThreshold,
	}
}

func (s *Store) save(ctx context.Context, session *domain.ChatSession) {
	data, err := json.Marshal(session)
	if err != nil {
		s.opts.Logger.Error("Failed to encode chat session", "key", s.key, "error", err)
		return
	}
	// Detached so a visitor disconnecting mid-turn cannot drop an acknowledged message.
	if err := s.backend.PutChatRecord(context.WithoutCancel(ctx), s.key, data, session.LastActivity); err != nil {
		s.opts.Logger.Error("Failed to persist chat session", "key", s.key, "session_id", session.ID, "error", err)
	}
}

// NewMessage builds a message with a time-ordered id.
func NewMessage(text string, isUser bool, now time.Time) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        newID("msg"),
		Text:      text,
		IsUser:    isUser,
		Timestamp: now,
	}
}

func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}
