package janitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/portfolio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedSweeper struct {
	mu    sync.Mutex
	errs  []error
	calls int
	ttl   time.Duration
}

func (s *scriptedSweeper) CleanupExpiredChatRecords(_ context.Context, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ttl = ttl
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return 0, err
	}
	return 2, nil
}

func (s *scriptedSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingEvicter struct {
	idle time.Duration
}

func (e *countingEvicter) Evict(idle time.Duration) int {
	e.idle = idle
	return 1
}

func TestSweepRetriesLockedDatabase(t *testing.T) {
	sw := &scriptedSweeper{errs: []error{
		errors.New("database is locked"),
		errors.New("SQLITE_BUSY"),
	}}
	ev := &countingEvicter{}
	j := New(sw, Options{TTL: 24 * time.Hour, Evicter: ev, baseDelay: time.Millisecond})

	assert.EqualValues(t, 2, j.Sweep(context.Background()))
	assert.Equal(t, 3, sw.Calls())
	assert.Equal(t, 24*time.Hour, sw.ttl)
	assert.Equal(t, 24*time.Hour, ev.idle)
}

func TestSweepGivesUpOnOtherErrors(t *testing.T) {
	sw := &scriptedSweeper{errs: []error{errors.New("no such table")}}
	j := New(sw, Options{TTL: time.Hour, baseDelay: time.Millisecond})

	assert.Zero(t, j.Sweep(context.Background()))
	assert.Equal(t, 1, sw.Calls())
}

func TestSweepGivesUpAfterMaxRetries(t *testing.T) {
	locked := errors.New("database is locked")
	sw := &scriptedSweeper{errs: []error{locked, locked, locked, locked}}
	j := New(sw, Options{TTL: time.Hour, baseDelay: time.Millisecond})

	_, err := j.cleanupWithRetry(context.Background())
	require.ErrorIs(t, err, locked)
	assert.Equal(t, maxRetries, sw.Calls())
}

func TestRunStopsWithContext(t *testing.T) {
	sw := &scriptedSweeper{}
	j := New(sw, Options{TTL: time.Hour, Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sw.Calls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestSweepAgainstSQLite(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "janitor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	require.NoError(t, s.PutChatRecord(ctx, "portfolio_chat_session:old", []byte(`{}`), time.Now().Add(-25*time.Hour)))
	require.NoError(t, s.PutChatRecord(ctx, "portfolio_chat_session:new", []byte(`{}`), time.Now()))

	j := New(s, Options{TTL: 24 * time.Hour})
	assert.EqualValues(t, 1, j.Sweep(ctx))

	kept, err := s.GetChatRecord(ctx, "portfolio_chat_session:new")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
