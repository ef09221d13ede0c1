package grounding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	snap    *domain.ContentSnapshot
	err     error
}

func (s *countingSource) Fetch(context.Context) (*domain.ContentSnapshot, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	return s.snap, s.err
}

func TestConcurrentInitializeFetchesOnce(t *testing.T) {
	t.Parallel()

	want := &domain.ContentSnapshot{Personal: domain.Personal{Name: "Ada Lovelace"}}
	src := &countingSource{release: make(chan struct{}), snap: want}
	c := NewContext(src, nil)

	var wg sync.WaitGroup
	got := make([]*domain.ContentSnapshot, 2)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Initialize(context.Background())
			assert.NoError(t, err)
			got[i] = snap
		}(i)
	}

	assert.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, c.Snapshot(), "no snapshot before the fetch resolves")
	assert.False(t, c.Ready())

	close(src.release)
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
	assert.Same(t, want, got[0])
	assert.Same(t, want, got[1])
	assert.Same(t, want, c.Snapshot())
	assert.True(t, c.Ready())

	again, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, again)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestInitializeCachesFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("fetch failed")
	src := &countingSource{err: boom}
	c := NewContext(src, nil)

	for i := 0; i < 3; i++ {
		snap, err := c.Initialize(context.Background())
		assert.Nil(t, snap)
		assert.ErrorIs(t, err, boom)
	}
	assert.EqualValues(t, 1, src.calls.Load())
	assert.True(t, c.Failed())
	assert.Equal(t, NotAvailable, c.FormatSection(domain.SectionPersonal))

	assert.True(t, c.ResetIfFailed())
	src.err = nil
	src.snap = &domain.ContentSnapshot{}
	snap, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.EqualValues(t, 2, src.calls.Load())
	assert.False(t, c.ResetIfFailed(), "a cached snapshot is kept")
}

func TestInitializeNilSnapshot(t *testing.T) {
	t.Parallel()

	c := NewContext(&countingSource{}, nil)
	_, err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestInitializeCallerCancellation(t *testing.T) {
	t.Parallel()

	src := &countingSource{release: make(chan struct{}), snap: &domain.ContentSnapshot{}}
	c := NewContext(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Initialize(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(src.release)
	snap, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestResetRefetches(t *testing.T) {
	t.Parallel()

	src := &countingSource{snap: &domain.ContentSnapshot{}}
	c := NewContext(content.Source(src), nil)

	_, err := c.Initialize(context.Background())
	require.NoError(t, err)
	c.Reset()
	assert.Nil(t, c.Snapshot())

	_, err = c.Initialize(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

// attachSource records that the grounding fetch reached the client.
type attachSource struct {
	next     content.Source
	attached atomic.Bool
}

func (s *attachSource) Fetch(ctx context.Context) (*domain.ContentSnapshot, error) {
	s.attached.Store(true)
	return s.next.Fetch(ctx)
}

func TestInitializeSharesPageLoadFetch(t *testing.T) {
	t.Parallel()

	want := &domain.ContentSnapshot{Personal: domain.Personal{Name: "Ada Lovelace"}}
	src := &countingSource{release: make(chan struct{}), snap: want}
	client := content.NewClient(src, nil)
	via := &attachSource{next: client}
	c := NewContext(via, nil)

	var (
		wg       sync.WaitGroup
		pageSnap *domain.ContentSnapshot
		pageErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pageSnap, pageErr = client.Fetch(context.Background())
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	var (
		snap *domain.ContentSnapshot
		err  error
	)
	go func() {
		defer close(done)
		snap, err = c.Initialize(context.Background())
	}()
	require.Eventually(t, via.attached.Load, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // let the lookup join the pending fetch

	close(src.release)
	wg.Wait()
	<-done

	require.NoError(t, pageErr)
	require.NoError(t, err)
	assert.Same(t, want, pageSnap)
	assert.Same(t, want, snap)
	assert.EqualValues(t, 1, src.calls.Load(), "page load and assistant share one fetch")
	assert.EqualValues(t, 1, client.Fetches())
}

func TestInitializeThroughClientReportsUnavailable(t *testing.T) {
	t.Parallel()

	boom := errors.New("firestore down")
	c := NewContext(content.NewClient(&countingSource{err: boom}, nil), nil)

	_, err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, content.ErrUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.True(t, c.Failed())
}
