// Package feed implements paginated loading of upstream lists: Feed accumulates
// pages for infinite scroll, Pager models numbered page controls. Both fetch
// through the same PageFunc.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/heronhoga/bars-fe/model"
)

// ScrollThreshold is the distance from the bottom, in pixels, that triggers the next page.
const ScrollThreshold = 1000

var (
	// ErrBusy is returned while another load is in flight.
	ErrBusy = errors.New("feed: load in flight")
	// ErrExhausted is returned once an empty or failed page ended the feed.
	ErrExhausted = errors.New("feed: no more pages")
	// ErrStale is returned when a reset happened while the load was in flight.
	ErrStale = errors.New("feed: stale response")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("feed: closed")
)

// PageFunc fetches one 1-based page.
type PageFunc[T any] func(ctx context.Context, page int) (*model.Page[T], error)

// Result describes what a load changed.
type Result[T any] struct {
	Page    int
	Items   []T
	Replace bool // page 1 replaces the list
	Done    bool // this load ended the feed
}

// Feed accumulates pages: page 1 replaces, later pages append. After a page
// with zero rows or a failed fetch no further request is issued until reset.
type Feed[T any] struct {
	fetch PageFunc[T]

	mu      sync.Mutex
	items   []T
	page    int
	hasMore bool
	loading bool
	gen     uint64
	cancel  context.CancelFunc
	closed  bool

	ctx  context.Context
	stop context.CancelFunc
}

// New creates an empty feed.
func New[T any](fetch PageFunc[T]) *Feed[T] {
	ctx, stop := context.WithCancel(context.Background())
	return &Feed[T]{fetch: fetch, hasMore: true, ctx: ctx, stop: stop}
}

// NearBottom reports whether the viewport is within ScrollThreshold of the end.
func NearBottom(scrollTop, clientHeight, scrollHeight float64) bool {
	return scrollTop+clientHeight >= scrollHeight-ScrollThreshold
}

// Load fetches page. Page 1 resets the feed and cancels any load in flight.
func (f *Feed[T]) Load(ctx context.Context, page int) (Result[T], error) {
	if page < 1 {
		page = 1
	}
	return f.load(ctx, func() (int, error) { return page, nil })
}

// LoadMore fetches the page after the last loaded one. It is a no-op error
// while a load is in flight or after the feed ended.
func (f *Feed[T]) LoadMore(ctx context.Context) (Result[T], error) {
	return f.load(ctx, func() (int, error) {
		if f.loading {
			return 0, ErrBusy
		}
		if !f.hasMore {
			return 0, ErrExhausted
		}
		return f.page + 1, nil
	})
}

// load picks the page under the lock, fetches without it and applies the
// response only if no reset happened meanwhile.
func (f *Feed[T]) load(ctx context.Context, pick func() (int, error)) (Result[T], error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Result[T]{}, ErrClosed
	}
	page, err := pick()
	if err != nil {
		f.mu.Unlock()
		return Result[T]{}, err
	}
	if page == 1 {
		if f.cancel != nil {
			f.cancel()
		}
		f.gen++
		f.hasMore = true
	} else if f.loading {
		f.mu.Unlock()
		return Result[T]{}, ErrBusy
	} else if !f.hasMore {
		f.mu.Unlock()
		return Result[T]{}, ErrExhausted
	}
	gen := f.gen
	f.loading = true
	loadCtx, cancel := context.WithCancel(ctx)
	unhook := context.AfterFunc(f.ctx, cancel)
	f.cancel = cancel
	f.mu.Unlock()

	res, err := f.fetch(loadCtx, page)
	unhook()
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || f.closed {
		return Result[T]{}, ErrStale
	}
	f.loading = false
	f.cancel = nil

	if err != nil {
		f.hasMore = false
		return Result[T]{Page: page, Done: true}, err
	}

	out := Result[T]{Page: page, Items: res.Data, Replace: page == 1}
	if page == 1 {
		f.items = append([]T(nil), res.Data...)
	} else {
		f.items = append(f.items, res.Data...)
	}
	f.page = page
	if len(res.Data) == 0 {
		f.hasMore = false
		out.Done = true
	}
	return out, nil
}

// Items returns a copy of the loaded items.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.items...)
}

// HasMore reports whether another page may exist.
func (f *Feed[T]) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Loading reports whether a load is in flight.
func (f *Feed[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Page returns the last loaded page, 0 before the first load.
func (f *Feed[T]) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Find returns the first item matching pred.
func (f *Feed[T]) Find(pred func(T) bool) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Update applies fn to every item matching pred and returns the first updated copy.
func (f *Feed[T]) Update(pred func(T) bool, fn func(*T) error) (T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		first T
		found bool
	)
	for i := range f.items {
		if !pred(f.items[i]) {
			continue
		}
		if err := fn(&f.items[i]); err != nil {
			return first, found, err
		}
		if !found {
			first, found = f.items[i], true
		}
	}
	return first, found, nil
}

// Close cancels in-flight loads; later loads fail with ErrClosed.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.stop()
}
