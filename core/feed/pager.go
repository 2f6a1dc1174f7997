package feed

import "context"

// visibleWindow is how many page numbers the controls show at most.
const visibleWindow = 5

// Pager is the numbered-page view of a list.
type Pager struct {
	Current    int
	TotalPages int
}

// Clamp bounds page to [1, totalPages]; 1 when there are no pages.
func Clamp(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// NewPager returns a pager with current clamped.
func NewPager(current, totalPages int) Pager {
	if totalPages < 0 {
		totalPages = 0
	}
	return Pager{Current: Clamp(current, totalPages), TotalPages: totalPages}
}

func (p Pager) PrevDisabled() bool {
	return p.Current <= 1
}

func (p Pager) NextDisabled() bool {
	return p.TotalPages == 0 || p.Current >= p.TotalPages
}

// Prev is the page before Current, clamped.
func (p Pager) Prev() int {
	return Clamp(p.Current-1, p.TotalPages)
}

// Next is the page after Current, clamped.
func (p Pager) Next() int {
	return Clamp(p.Current+1, p.TotalPages)
}

// Hidden reports whether the controls should not render.
func (p Pager) Hidden() bool {
	return p.TotalPages <= 1
}

// Visible returns up to five page numbers centred on Current.
func (p Pager) Visible() []int {
	if p.TotalPages == 0 {
		return nil
	}
	start := p.Current - visibleWindow/2
	end := start + visibleWindow - 1
	if start < 1 {
		end += 1 - start
		start = 1
	}
	if end > p.TotalPages {
		start -= end - p.TotalPages
		end = p.TotalPages
	}
	if start < 1 {
		start = 1
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// FetchPage loads page through fetch and returns it with its pager. A page
// past the end is refetched as the last page.
func FetchPage[T any](ctx context.Context, fetch PageFunc[T], page int) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	res, err := fetch(ctx, page)
	if err != nil {
		return nil, err
	}
	if res.TotalPages > 0 && page > res.TotalPages {
		page = res.TotalPages
		if res, err = fetch(ctx, page); err != nil {
			return nil, err
		}
	}
	return &Page[T]{Items: res.Data, Pager: NewPager(page, res.TotalPages)}, nil
}

// Page is one fetched page with its controls.
type Page[T any] struct {
	Items []T
	Pager Pager
}
