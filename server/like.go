package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
)

type likeResponse struct {
	ID      string `json:"id"`
	Likes   int    `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}

// Like toggles a like for pages without a live session. The page posts the
// count and state it shows; they change only after upstream confirmed.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, jsonError{Error: "Invalid request"})
		return
	}
	likes, _ := strconv.Atoi(r.PostFormValue("likes"))
	beat := model.Beat{ID: id, Likes: likes, IsLiked: r.PostFormValue("liked")}

	msg, err := h.api.LikeBeat(r.Context(), GetTokenFromContext(r.Context()), id)
	if err != nil {
		if api.IsUnauthorized(err) {
			h.sessions.Clear(w)
			writeJSON(w, http.StatusUnauthorized, jsonError{Error: "Session expired, please login again", Redirect: "/login"})
			return
		}
		logger.Warn("Failed to like beat", logger.String("beat_id", id), logger.ErrorField(err))
		writeJSON(w, http.StatusBadGateway, jsonError{Error: api.Message(err, "Failed to like beat")})
		return
	}

	if err := beat.ApplyLike(msg); err != nil {
		logger.Warn("Unexpected like result", logger.String("beat_id", id), logger.ErrorField(err))
		writeJSON(w, http.StatusBadGateway, jsonError{Error: "Failed to like beat"})
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{ID: beat.ID, Likes: beat.Likes, IsLiked: beat.Liked()})
}
