package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/heronhoga/bars-fe/core/feed"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

type searchData struct {
	Query   string
	Results []model.Beat
	Pager   web.PagerView
	Recent  []string
	Error   string
}

// pageParam reads a 1-based page number; anything unparsable is page 1.
func pageParam(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Search runs a title/artist search and remembers the query for the visitor.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := GetVisitorFromContext(ctx)
	token := GetTokenFromContext(ctx)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	page := pageParam(r, "page")

	data := searchData{Query: query}

	if query != "" {
		// 只在提交搜索时记录, 翻页不算
		if page == 1 {
			if _, err := h.store.AddRecent(ctx, visitor, query); err != nil {
				logger.Warn("Failed to store recent search", logger.ErrorField(err))
			}
		}

		fetch := func(ctx context.Context, p int) (*model.Page[model.Beat], error) {
			return h.api.SearchBeats(ctx, token, query, p)
		}
		res, err := feed.FetchPage[model.Beat](ctx, fetch, page)
		switch {
		case h.expired(w, r, err):
			return
		case err != nil:
			logger.Warn("Search failed", logger.String("query", query), logger.ErrorField(err))
			data.Error = "Failed to search beats"
		default:
			data.Results = res.Items
			data.Pager = web.NewPagerView(res.Pager, func(p int) string {
				return "/search?" + url.Values{"q": {query}, "page": {strconv.Itoa(p)}}.Encode()
			})
		}
	}

	recent, err := h.store.Recent(ctx, visitor)
	if err != nil {
		logger.Warn("Failed to load recent searches", logger.ErrorField(err))
	}
	data.Recent = recent

	h.page(w, r, http.StatusOK, "search", web.View{Title: "Search", Nav: "search", LoggedIn: true, Data: data})
}

// ClearRecent forgets the visitor's recent searches.
func (h *Handler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearRecent(r.Context(), GetVisitorFromContext(r.Context())); err != nil {
		logger.Warn("Failed to clear recent searches", logger.ErrorField(err))
	}
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}
