package web

import (
	"github.com/heronhoga/bars-fe/core/feed"
	"github.com/heronhoga/bars-fe/model"
)

// View is the data every page template receives.
type View struct {
	Title    string
	Nav      string // active navigation entry
	LoggedIn bool
	Alert    *model.AlertState
	Confirm  *model.ConfirmState
	Errors   map[string]string // field -> message, "general" for form-wide errors
	Form     any
	Data     any
}

// PageLink is one numbered control.
type PageLink struct {
	Num     int
	URL     string
	Current bool
}

// PagerView is a Pager with its links resolved.
type PagerView struct {
	feed.Pager
	PrevURL string
	NextURL string
	Links   []PageLink
}

// NewPagerView resolves the controls of p with link.
func NewPagerView(p feed.Pager, link func(page int) string) PagerView {
	v := PagerView{Pager: p, PrevURL: link(p.Prev()), NextURL: link(p.Next())}
	for _, n := range p.Visible() {
		v.Links = append(v.Links, PageLink{Num: n, URL: link(n), Current: n == p.Current})
	}
	return v
}
