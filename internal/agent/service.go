package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/portfolio/internal/chat"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
)

// visitor is the assistant state of one visitor. op serializes Open, Send and
// Reset; mu guards the fields so Status can read while a reply streams.
type visitor struct {
	op sync.Mutex

	mu       sync.Mutex
	state    State
	conv     Conversation
	session  *domain.ChatSession
	err      error
	lastUsed time.Time
	evicted  bool
}

func (v *visitor) set(state State, err error) {
	v.mu.Lock()
	v.state = state
	v.err = err
	v.mu.Unlock()
}

// Service runs the open, send and reset flows for every visitor.
type Service struct {
	gateway   *Gateway
	grounding *grounding.Context
	sessions  *chat.Sessions
	now       func() time.Time
	logger    *slog.Logger

	visitors sync.Map // visitorID -> *visitor
}

// NewService wires the assistant.
func NewService(gateway *Gateway, gc *grounding.Context, sessions *chat.Sessions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gateway:   gateway,
		grounding: gc,
		sessions:  sessions,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *Service) visitor(id string) *visitor {
	for {
		v, _ := s.visitors.LoadOrStore(id, &visitor{state: StateUninitialized})
		vs := v.(*visitor)
		vs.mu.Lock()
		evicted := vs.evicted
		if !evicted {
			vs.lastUsed = s.now()
		}
		vs.mu.Unlock()
		if !evicted {
			return vs
		}
		s.visitors.CompareAndDelete(id, vs)
	}
}

// acquire returns the visitor holding its op lock. A visitor evicted between
// lookup and lock is dropped and looked up again.
func (s *Service) acquire(id string) (*visitor, error) {
	for {
		v := s.visitor(id)
		if !v.op.TryLock() {
			return nil, ErrBusy
		}
		v.mu.Lock()
		evicted := v.evicted
		v.mu.Unlock()
		if !evicted {
			return v, nil
		}
		v.op.Unlock()
	}
}

// MaxMessages returns the per-session ceiling.
func (s *Service) MaxMessages() int {
	return s.sessions.MaxMessages()
}

// Open restores the visitor's stored conversation or starts a new one with
// the greeting, and opens a backend conversation for it. Opening an already
// ready assistant returns its current session. After a failure the assistant
// stays in the error state until the next explicit Open.
func (s *Service) Open(ctx context.Context, visitorID string) (*SessionView, error) {
	v, err := s.acquire(visitorID)
	if err != nil {
		return nil, err
	}
	defer v.op.Unlock()

	store := s.sessions.For(visitorID)

	v.mu.Lock()
	if v.state == StateReady && v.conv != nil && v.session != nil {
		view := s.view(store, v.state, v.session, false, nil)
		v.mu.Unlock()
		return view, nil
	}
	v.state = StateInitializing
	v.err = nil
	v.mu.Unlock()

	session, restored := store.Load(ctx)

	snap, err := s.grounding.Initialize(ctx)
	if err != nil {
		if ctx.Err() != nil {
			v.set(StateUninitialized, nil)
			return nil, ctx.Err()
		}
		s.logger.Error("Assistant unavailable: no portfolio content", "visitor_id", visitorID, "error", err)
		return s.fail(v, store, ErrContentUnavailable)
	}

	conv, err := s.gateway.CreateSession(ctx, snap)
	if err != nil {
		if ctx.Err() != nil {
			v.set(StateUninitialized, nil)
			return nil, ctx.Err()
		}
		s.logger.Error("Failed to create assistant session", "visitor_id", visitorID, "error", err)
		return s.fail(v, store, err)
	}

	if !restored {
		session = store.Create(ctx)
		session = store.Append(ctx, session, chat.NewMessage(grounding.Greeting(snap), false, s.now()))
	}

	v.mu.Lock()
	v.state = StateReady
	v.conv = conv
	v.session = session
	view := s.view(store, v.state, session, restored, nil)
	v.mu.Unlock()

	s.logger.Info("Assistant session opened", "visitor_id", visitorID, "session_id", session.ID,
		"restored", restored, "message_count", session.MessageCount)
	return view, nil
}

func (s *Service) fail(v *visitor, store *chat.Store, err error) (*SessionView, error) {
	v.mu.Lock()
	v.state = StateError
	v.err = err
	v.conv = nil
	view := s.view(store, v.state, v.session, false, err)
	v.mu.Unlock()
	return view, err
}

// Send appends the visitor's message, streams the reply through emit, and
// appends the reply once it is complete. The visitor's message stays in the
// history when the backend fails. A reply cut short by ctx is not stored.
func (s *Service) Send(ctx context.Context, visitorID, text string, emit func(fragment string)) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("message is required")
	}

	v, err := s.acquire(visitorID)
	if err != nil {
		return nil, err
	}
	defer v.op.Unlock()

	v.mu.Lock()
	state, conv, session, stateErr := v.state, v.conv, v.session, v.err
	v.mu.Unlock()

	switch state {
	case StateReady:
	case StateError:
		return nil, stateErr
	default:
		return nil, ErrNotReady
	}

	store := s.sessions.For(visitorID)
	if !store.CanAppend(session) {
		return nil, &LimitError{Max: store.MaxMessages()}
	}

	userMsg := chat.NewMessage(text, true, s.now())
	session = store.Append(ctx, session, userMsg)

	v.mu.Lock()
	v.session = session
	v.state = StateSending
	v.mu.Unlock()
	defer v.set(StateReady, nil)

	// The snapshot may have been reset since Open; Initialize refetches it once.
	snap, err := s.grounding.Initialize(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Replying without portfolio content", "visitor_id", visitorID, "error", err)
	}

	var (
		b     strings.Builder
		stats StreamStats
	)
	for frag, err := range s.gateway.Stream(ctx, conv, text, snap, &stats) {
		if err != nil {
			s.logger.Error("Assistant reply failed", "visitor_id", visitorID, "session_id", session.ID, "error", err)
			return nil, err
		}
		b.WriteString(frag)
		if emit != nil {
			emit(frag)
		}
	}
	if err := ctx.Err(); err != nil {
		s.logger.Info("Visitor left before the reply finished", "visitor_id", visitorID, "session_id", session.ID)
		return nil, err
	}

	assistantMsg := chat.NewMessage(b.String(), false, s.now())
	session = store.Append(ctx, session, assistantMsg)

	v.mu.Lock()
	v.session = session
	v.mu.Unlock()

	return &Reply{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Stats:            store.Stats(session),
		ToolsUsed:        stats.ToolsUsed,
	}, nil
}

// Reset clears the stored conversation so the next Open starts fresh. A cached
// content failure is dropped too, so reopening retries the fetch.
func (s *Service) Reset(ctx context.Context, visitorID string) error {
	v, err := s.acquire(visitorID)
	if err != nil {
		return err
	}
	defer v.op.Unlock()

	s.sessions.For(visitorID).Clear(ctx)
	if s.grounding.ResetIfFailed() {
		s.logger.Info("Dropped cached content failure", "visitor_id", visitorID)
	}

	v.mu.Lock()
	v.state = StateUninitialized
	v.err = nil
	v.conv = nil
	v.session = nil
	v.mu.Unlock()
	return nil
}

// Status reports the visitor's state. Before Open it reports the stored
// conversation, if any, without opening it.
func (s *Service) Status(ctx context.Context, visitorID string) *SessionView {
	v := s.visitor(visitorID)
	store := s.sessions.For(visitorID)

	v.mu.Lock()
	state, session, err := v.state, v.session, v.err
	v.mu.Unlock()

	if session == nil && state == StateUninitialized {
		if stored, ok := store.Load(ctx); ok {
			return s.view(store, state, stored, true, nil)
		}
	}
	return s.view(store, state, session, false, err)
}

func (s *Service) view(store *chat.Store, state State, session *domain.ChatSession, restored bool, err error) *SessionView {
	view := &SessionView{
		State:       state,
		MaxMessages: store.MaxMessages(),
		Restored:    restored,
		Error:       UserMessage(err),
	}
	if session != nil {
		view.Session = session.Clone()
		stats := store.Stats(session)
		view.Stats = &stats
	}
	return view
}

// Evict forgets in-memory state of visitors idle for longer than idle. Their
// stored conversations are untouched and are restored by the next Open.
func (s *Service) Evict(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	evicted := 0
	s.visitors.Range(func(key, value any) bool {
		v := value.(*visitor)
		if !v.op.TryLock() {
			return true
		}
		v.mu.Lock()
		stale := v.lastUsed.Before(cutoff)
		if stale {
			v.evicted = true
		}
		v.mu.Unlock()
		if stale {
			s.visitors.CompareAndDelete(key, v)
			evicted++
		}
		v.op.Unlock()
		return true
	})
	return evicted
}
