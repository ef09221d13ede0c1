package agent

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/ashureev/portfolio/internal/chat"
	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
)

// round is one scripted backend reply.
type round struct {
	fragments []Fragment
	err       error
	gate      <-chan struct{} // blocks the round until closed
}

// fakeConversation replays scripted rounds in order and records what it was sent.
type fakeConversation struct {
	mu          sync.Mutex
	rounds      []round
	sent        []string
	toolResults [][]ToolResult
	calls       int
}

func (c *fakeConversation) next() round {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.rounds) == 0 {
		return round{fragments: []Fragment{{Text: "ok"}}}
	}
	r := c.rounds[0]
	c.rounds = c.rounds[1:]
	return r
}

func (c *fakeConversation) play(ctx context.Context, r round) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		if r.gate != nil {
			select {
			case <-r.gate:
			case <-ctx.Done():
				return
			}
		}
		for _, f := range r.fragments {
			if ctx.Err() != nil {
				return
			}
			if !yield(f, nil) {
				return
			}
		}
		if r.err != nil {
			yield(Fragment{}, r.err)
		}
	}
}

func (c *fakeConversation) Send(ctx context.Context, text string) iter.Seq2[Fragment, error] {
	c.mu.Lock()
	c.sent = append(c.sent, text)
	c.mu.Unlock()
	return c.play(ctx, c.next())
}

func (c *fakeConversation) SendToolResults(ctx context.Context, results []ToolResult) iter.Seq2[Fragment, error] {
	c.mu.Lock()
	c.toolResults = append(c.toolResults, results)
	c.mu.Unlock()
	return c.play(ctx, c.next())
}

func (c *fakeConversation) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeBackend struct {
	mu       sync.Mutex
	conv     *fakeConversation
	err      error
	opens    int
	preamble string
	greeting string
}

func (b *fakeBackend) Open(_ context.Context, preamble, greeting string) (Conversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	b.preamble = preamble
	b.greeting = greeting
	if b.err != nil {
		return nil, b.err
	}
	return b.conv, nil
}

// memRecords is an in-memory chat.Backend.
type memRecords struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[string][]byte)}
}

func (m *memRecords) GetChatRecord(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[key], nil
}

func (m *memRecords) PutChatRecord(_ context.Context, key string, data []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
	return nil
}

func (m *memRecords) DeleteChatRecord(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func testSnapshot() *domain.ContentSnapshot {
	return &domain.ContentSnapshot{
		Personal: domain.Personal{Name: "Ada Lovelace", Title: "Engineer"},
		Skills: domain.Skills{Categories: []domain.SkillCategory{
			{ID: "be", Title: "Backend", Description: "Go services"},
			{ID: "fe", Title: "Frontend", Description: "React apps"},
		}},
		Experiences: []domain.Experience{{Company: "Engines", Position: "Lead", Technologies: []string{"Go"}}},
		Works:       []domain.Work{{Title: "Notes", Technologies: []string{"Go"}}},
	}
}

var errFetch = errors.New("firestore down")

type serviceFixture struct {
	service *Service
	backend *fakeBackend
	conv    *fakeConversation
	records *memRecords
}

func newServiceFixture(snap *domain.ContentSnapshot, maxMessages int, rounds ...round) *serviceFixture {
	conv := &fakeConversation{rounds: rounds}
	backend := &fakeBackend{conv: conv}
	records := newMemRecords()

	src := content.SourceFunc(func(context.Context) (*domain.ContentSnapshot, error) {
		if snap == nil {
			return nil, errFetch
		}
		return snap, nil
	})

	svc := NewService(
		NewGateway(backend, nil),
		grounding.NewContext(src, nil),
		chat.NewSessions(records, chat.Options{MaxMessages: maxMessages}),
		nil,
	)
	return &serviceFixture{service: svc, backend: backend, conv: conv, records: records}
}
