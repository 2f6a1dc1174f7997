package server

import (
	"context"
	"net/http"

	"github.com/heronhoga/bars-fe/core/live"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

type landingData struct {
	Beats []model.Beat
	Error string
}

// Landing shows the public favorite beats.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	data := landingData{}
	beats, err := h.api.FavoriteBeats(r.Context())
	if err != nil {
		logger.Warn("Failed to fetch favorite beats", logger.ErrorField(err))
		data.Error = "Failed to fetch beats"
	}
	data.Beats = beats
	h.page(w, r, http.StatusOK, "landing", web.View{Title: "BARS", Nav: "landing", Data: data})
}

// Home renders the feed shell; the beats arrive over /ws/feed.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "home", web.View{Title: "Home", Nav: "home", LoggedIn: true})
}

// FeedSocket runs one live page session for the connection. The session owns
// the feed, the player and the like state until the socket closes.
func (h *Handler) FeedSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	visitor := GetVisitorFromContext(r.Context())
	client := live.NewClient(h.hub, conn, visitor)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	// the request context ends with the handler, so the session gets its own
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ReadPump closes the session as soon as the page goes away
	session := live.NewSession(h.api, GetTokenFromContext(r.Context()), client.SendMessage)

	logger.Debug("live session started", logger.String("visitor", visitor))
	go client.WritePump()
	client.ReadPump(ctx, session.Handle, session.Close)
	logger.Debug("live session ended", logger.String("visitor", visitor))
}
