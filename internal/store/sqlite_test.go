package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestChatRecordRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetChatRecord(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "missing record should return nil")

	require.NoError(t, s.PutChatRecord(ctx, "k", []byte(`{"id":"a"}`), time.Now()))
	require.NoError(t, s.PutChatRecord(ctx, "k", []byte(`{"id":"b"}`), time.Now()))

	got, err = s.GetChatRecord(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b"}`, string(got), "put must overwrite the whole record")

	require.NoError(t, s.DeleteChatRecord(ctx, "k"))
	require.NoError(t, s.DeleteChatRecord(ctx, "k"), "delete must be idempotent")

	got, err = s.GetChatRecord(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCleanupExpiredChatRecords(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutChatRecord(ctx, "old", []byte(`{}`), time.Now().Add(-48*time.Hour)))
	require.NoError(t, s.PutChatRecord(ctx, "fresh", []byte(`{}`), time.Now()))

	n, err := s.CleanupExpiredChatRecords(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	old, err := s.GetChatRecord(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	fresh, err := s.GetChatRecord(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestVisitorCounter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.VisitorCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementVisitorCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	n, err = s.VisitorCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestTouchVisitor(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.TouchVisitor(ctx, "anon_1", first))
	require.NoError(t, s.TouchVisitor(ctx, "anon_1", first.Add(time.Hour)))

	v, err := s.GetVisitor(ctx, "anon_1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, first.Unix(), v.CreatedAt.Unix())
	assert.Equal(t, first.Add(time.Hour).Unix(), v.LastSeenAt.Unix())

	missing, err := s.GetVisitor(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContactOutbox(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveContactMessage(ctx, &domain.ContactMessage{
		Name:        "Ada",
		Email:       "ada@example.com",
		Message:     "hello",
		VisitorID:   "anon_1",
		SubmittedAt: time.Now(),
	}))

	pending, err := s.PendingContactMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ada", pending[0].Name)
	assert.Equal(t, "anon_1", pending[0].VisitorID)
}
