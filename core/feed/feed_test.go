package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heronhoga/bars-fe/model"
)

// pagesOf serves fixed pages and counts calls.
type pagesOf struct {
	pages [][]string
	calls atomic.Int32
	err   error
}

func (p *pagesOf) fetch(_ context.Context, page int) (*model.Page[string], error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if page > len(p.pages) {
		return &model.Page[string]{Data: []string{}, TotalPages: len(p.pages)}, nil
	}
	return &model.Page[string]{Data: p.pages[page-1], TotalPages: len(p.pages)}, nil
}

func TestFeed_ReplaceThenAppend(t *testing.T) {
	src := &pagesOf{pages: [][]string{{"a", "b"}, {"c"}}}
	f := New(src.fetch)
	ctx := context.Background()

	res, err := f.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Replace)
	assert.Equal(t, []string{"a", "b"}, f.Items())

	res, err = f.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, res.Replace)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, []string{"a", "b", "c"}, f.Items())

	// reload replaces
	_, err = f.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Items())
	assert.Equal(t, 1, f.Page())
}

func TestFeed_EmptyPageEndsOnce(t *testing.T) {
	src := &pagesOf{pages: [][]string{{"a"}}}
	f := New(src.fetch)
	ctx := context.Background()

	_, err := f.Load(ctx, 1)
	require.NoError(t, err)

	res, err := f.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.False(t, f.HasMore())
	assert.Equal(t, int32(2), src.calls.Load())

	for i := 0; i < 3; i++ {
		_, err = f.LoadMore(ctx)
		assert.ErrorIs(t, err, ErrExhausted)
	}
	assert.Equal(t, int32(2), src.calls.Load(), "no request after the feed ended")
	assert.Equal(t, []string{"a"}, f.Items())
}

func TestFeed_FailedFetchStopsPagination(t *testing.T) {
	boom := errors.New("boom")
	src := &pagesOf{err: boom}
	f := New(src.fetch)

	res, err := f.Load(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.True(t, res.Done)
	assert.False(t, f.HasMore())

	_, err = f.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFeed_InFlightGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	f := New(func(ctx context.Context, page int) (*model.Page[int], error) {
		calls.Add(1)
		if page == 2 {
			started <- struct{}{}
			<-release
		}
		return &model.Page[int]{Data: []int{page}}, nil
	})
	ctx := context.Background()
	_, err := f.Load(ctx, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.LoadMore(ctx)
		assert.NoError(t, err)
	}()
	<-started
	assert.True(t, f.Loading())

	_, err = f.LoadMore(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []int{1, 2}, f.Items())
}

func TestFeed_ResetDropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	f := New(func(ctx context.Context, page int) (*model.Page[string], error) {
		if page == 2 {
			started <- struct{}{}
			<-release
			return &model.Page[string]{Data: []string{"stale"}}, nil
		}
		return &model.Page[string]{Data: []string{"fresh"}}, nil
	})
	ctx := context.Background()
	_, err := f.Load(ctx, 1)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := f.LoadMore(ctx)
		errc <- err
	}()
	<-started

	_, err = f.Load(ctx, 1)
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, []string{"fresh"}, f.Items())
}

func TestFeed_CloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	f := New(func(ctx context.Context, page int) (*model.Page[string], error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	errc := make(chan error, 1)
	go func() {
		_, err := f.Load(context.Background(), 1)
		errc <- err
	}()
	<-started
	f.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(time.Second):
		t.Fatal("load was not cancelled")
	}

	_, err := f.Load(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFeed_Update(t *testing.T) {
	f := New(func(ctx context.Context, page int) (*model.Page[model.Beat], error) {
		return &model.Page[model.Beat]{Data: []model.Beat{{ID: "a", Likes: 1}, {ID: "b"}}}, nil
	})
	_, err := f.Load(context.Background(), 1)
	require.NoError(t, err)

	byID := func(id string) func(model.Beat) bool {
		return func(b model.Beat) bool { return b.ID == id }
	}
	b, ok, err := f.Update(byID("a"), func(b *model.Beat) error { return b.ApplyLike(model.LikeAdded) })
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, b.Likes)

	got, ok := f.Find(byID("a"))
	require.True(t, ok)
	assert.True(t, got.Liked())

	_, ok, _ = f.Update(byID("zz"), func(*model.Beat) error { return nil })
	assert.False(t, ok)
}

func TestNearBottom(t *testing.T) {
	assert.False(t, NearBottom(0, 800, 5000))
	assert.True(t, NearBottom(3200, 800, 5000))
	assert.True(t, NearBottom(4200, 800, 5000))
	assert.True(t, NearBottom(0, 800, 1200))
}
