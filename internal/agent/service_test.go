package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/portfolio/internal/chat"
	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitorA = "v_0123456789abcdef0123456789abcdef"

func TestOpenStartsWithGreeting(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)
	ctx := context.Background()

	view, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.Equal(t, StateReady, view.State)
	assert.False(t, view.Restored)
	require.NotNil(t, view.Session)
	require.Len(t, view.Session.Messages, 1)
	greeting := view.Session.Messages[0]
	assert.False(t, greeting.IsUser)
	assert.Equal(t, grounding.Greeting(testSnapshot()), greeting.Text)
	assert.Equal(t, 29, view.Stats.Remaining)

	again, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.Equal(t, view.Session.ID, again.Session.ID)
	assert.Equal(t, 1, f.backend.opens, "a ready assistant is not reopened")
}

func TestSendAppendsBothMessages(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30, round{fragments: []Fragment{{Text: "Ada writes "}, {Text: "Go."}}})
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)

	var fragments []string
	reply, err := f.service.Send(ctx, visitorA, "  What does Ada write?  ", func(s string) {
		fragments = append(fragments, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada writes ", "Go."}, fragments)
	assert.Equal(t, "What does Ada write?", reply.UserMessage.Text)
	assert.True(t, reply.UserMessage.IsUser)
	assert.Equal(t, "Ada writes Go.", reply.AssistantMessage.Text)
	assert.Equal(t, 3, reply.Stats.MessageCount)
	assert.Equal(t, []string{"What does Ada write?"}, f.conv.sent)

	status := f.service.Status(ctx, visitorA)
	assert.Equal(t, StateReady, status.State)
	assert.Len(t, status.Session.Messages, 3)
}

func TestOpenRestoresStoredConversation(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	_, err = f.service.Send(ctx, visitorA, "hi", nil)
	require.NoError(t, err)

	// A fresh service over the same records, as after a restart.
	backend := &fakeBackend{conv: &fakeConversation{}}
	restarted := NewService(
		NewGateway(backend, nil),
		grounding.NewContext(content.SourceFunc(func(context.Context) (*domain.ContentSnapshot, error) {
			return testSnapshot(), nil
		}), nil),
		chat.NewSessions(f.records, chat.Options{}),
		nil,
	)

	status := restarted.Status(ctx, visitorA)
	assert.Equal(t, StateUninitialized, status.State)
	assert.True(t, status.Restored)

	view, err := restarted.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.True(t, view.Restored)
	assert.Len(t, view.Session.Messages, 3)
	assert.Equal(t, 1, backend.opens)
}

func TestOpenWithoutContent(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(nil, 30)
	ctx := context.Background()

	view, err := f.service.Open(ctx, visitorA)
	require.ErrorIs(t, err, ErrContentUnavailable)
	require.NotNil(t, view)
	assert.Equal(t, StateError, view.State)
	assert.Equal(t, msgContentUnavailable, view.Error)
	assert.Zero(t, f.backend.opens)

	_, err = f.service.Send(ctx, visitorA, "hi", nil)
	assert.ErrorIs(t, err, ErrContentUnavailable, "send reports the stored failure")
}

func TestOpenWithoutCredential(t *testing.T) {
	t.Parallel()
	src := content.SourceFunc(func(context.Context) (*domain.ContentSnapshot, error) {
		return testSnapshot(), nil
	})
	svc := NewService(NewGateway(nil, nil), grounding.NewContext(src, nil),
		chat.NewSessions(newMemRecords(), chat.Options{}), nil)

	view, err := svc.Open(context.Background(), visitorA)
	require.ErrorIs(t, err, ErrCredentialMissing)
	assert.Equal(t, StateError, view.State)
	assert.Equal(t, msgCredentialMissing, view.Error)
}

func TestResetRetriesFailedContent(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	src := content.SourceFunc(func(context.Context) (*domain.ContentSnapshot, error) {
		if calls.Add(1) == 1 {
			return nil, errFetch
		}
		return testSnapshot(), nil
	})
	svc := NewService(NewGateway(&fakeBackend{conv: &fakeConversation{}}, nil), grounding.NewContext(src, nil),
		chat.NewSessions(newMemRecords(), chat.Options{}), nil)
	ctx := context.Background()

	_, err := svc.Open(ctx, visitorA)
	require.ErrorIs(t, err, ErrContentUnavailable)

	_, err = svc.Open(ctx, visitorA)
	require.ErrorIs(t, err, ErrContentUnavailable, "failure is cached until reset")
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, svc.Reset(ctx, visitorA))

	view, err := svc.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.Equal(t, StateReady, view.State)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSendBeforeOpen(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)

	_, err := f.service.Send(context.Background(), visitorA, "hi", nil)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSendAtLimit(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 3)
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	_, err = f.service.Send(ctx, visitorA, "one", nil)
	require.NoError(t, err)

	_, err = f.service.Send(ctx, visitorA, "two", nil)
	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 3, limit.Max)
	assert.Equal(t, "Message limit reached (3 messages). Please start a new session.", UserMessage(err))
	assert.Len(t, f.conv.sent, 1, "nothing is sent past the limit")
}

func TestBackendErrorKeepsUserMessage(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30,
		round{err: errors.New("stream reset")},
		round{fragments: []Fragment{{Text: "second try"}}},
	)
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)

	_, err = f.service.Send(ctx, visitorA, "hello?", nil)
	require.ErrorIs(t, err, ErrBackend)

	status := f.service.Status(ctx, visitorA)
	assert.Equal(t, StateReady, status.State)
	require.Len(t, status.Session.Messages, 2)
	assert.Equal(t, "hello?", status.Session.Messages[1].Text)

	reply, err := f.service.Send(ctx, visitorA, "hello again", nil)
	require.NoError(t, err)
	assert.Equal(t, "second try", reply.AssistantMessage.Text)
	assert.Equal(t, 4, reply.Stats.MessageCount)
}

func TestConcurrentSendIsBusy(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	f := newServiceFixture(testSnapshot(), 30, round{fragments: []Fragment{{Text: "slow"}}, gate: gate})
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Send(ctx, visitorA, "first", nil)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return f.service.Status(ctx, visitorA).State == StateSending
	}, time.Second, 5*time.Millisecond)

	_, err = f.service.Send(ctx, visitorA, "second", nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.service.Reset(ctx, visitorA), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, f.service.Status(ctx, visitorA).State)
}

func TestCancelledReplyIsNotStored(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	f := newServiceFixture(testSnapshot(), 30, round{fragments: []Fragment{{Text: "never"}}, gate: gate})

	_, err := f.service.Open(context.Background(), visitorA)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.service.Send(ctx, visitorA, "bye", nil)
	require.ErrorIs(t, err, context.Canceled)

	status := f.service.Status(context.Background(), visitorA)
	require.Len(t, status.Session.Messages, 2, "the visitor message stays, the reply does not")
	assert.True(t, status.Session.Messages[1].IsUser)
}

func TestResetClearsConversation(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	require.NoError(t, f.service.Reset(ctx, visitorA))

	status := f.service.Status(ctx, visitorA)
	assert.Equal(t, StateUninitialized, status.State)
	assert.Nil(t, status.Session)

	data, err := f.records.GetChatRecord(ctx, chat.KeyFor(visitorA))
	require.NoError(t, err)
	assert.Nil(t, data)

	view, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.Len(t, view.Session.Messages, 1)
}

func TestEvictIdleVisitors(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return t0 }

	_, err := f.service.Open(context.Background(), visitorA)
	require.NoError(t, err)
	assert.Zero(t, f.service.Evict(time.Hour))

	f.service.now = func() time.Time { return t0.Add(2 * time.Hour) }
	assert.Equal(t, 1, f.service.Evict(time.Hour))
	assert.Equal(t, StateUninitialized, f.service.Status(context.Background(), visitorA).State)
}

func TestSendAfterContentReset(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30,
		round{fragments: []Fragment{{Text: "Let me check."}, {ToolCalls: []ToolCall{skillsCall()}}}},
		round{fragments: []Fragment{{Text: "Backend and Frontend."}}},
	)
	ctx := context.Background()

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)

	// A content reload drops the cached snapshot under a ready visitor.
	f.service.grounding.Reset()
	require.Nil(t, f.service.grounding.Snapshot())

	reply, err := f.service.Send(ctx, visitorA, "What are the skills?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Let me check.\n\nBackend and Frontend.", reply.AssistantMessage.Text)
	assert.Equal(t, []string{ToolPortfolioContext}, reply.ToolsUsed)

	require.Len(t, f.conv.toolResults, 1)
	assert.True(t, f.conv.toolResults[0][0].Result.Success)
	assert.True(t, f.service.grounding.Ready())
}

func TestEvictedVisitorIsNotReused(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(testSnapshot(), 30)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return t0 }

	_, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)

	// A request looked the visitor up just before the sweep.
	held := f.service.visitor(visitorA)

	f.service.now = func() time.Time { return t0.Add(2 * time.Hour) }
	require.Equal(t, 1, f.service.Evict(time.Hour))

	// The lookup may still find the evicted entry in the map.
	f.service.visitors.Store(visitorA, held)

	view, err := f.service.Open(ctx, visitorA)
	require.NoError(t, err)
	assert.Equal(t, StateReady, view.State)
	assert.True(t, view.Restored, "the stored conversation is restored")

	current := f.service.visitor(visitorA)
	assert.NotSame(t, held, current)
	assert.Equal(t, StateReady, f.service.Status(ctx, visitorA).State)

	reply, err := f.service.Send(ctx, visitorA, "still there?", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.AssistantMessage.Text)
}
