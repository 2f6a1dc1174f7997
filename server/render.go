package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

// alerts shown after a redirect, picked with ?alert=<key>
var alerts = map[string]model.AlertState{
	"logged-in": {
		Type: model.AlertSuccess, Title: "Welcome back",
		Message: "Login successful!", ConfirmText: "OK",
	},
	"registered": {
		Type: model.AlertSuccess, Title: "Registration Successful",
		Message: "Registration successful! Please check your email to verify your account.", ConfirmText: "OK",
	},
	"deleted": {
		Type: model.AlertSuccess, Title: "Track Deletion Succeed",
		Message: "The track has been successfully deleted", ConfirmText: "OK",
	},
	"delete-failed": {
		Type: model.AlertError, Title: "Track Deletion Failed",
		Message: "Failed to the delete the track", ConfirmText: "OK",
	},
	"draft-missing": {
		Type: model.AlertError, Title: "Error",
		Message: "Failed to load beat data. Please try again.", ConfirmText: "OK",
	},
}

func alertFrom(r *http.Request) *model.AlertState {
	a, ok := alerts[r.URL.Query().Get("alert")]
	if !ok {
		return nil
	}
	a.Open = true
	return &a
}

// page renders a full page. The query alert is used when the view carries none.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, v web.View) {
	if v.Alert == nil {
		v.Alert = alertFrom(r)
	}
	if !v.LoggedIn {
		if _, err := h.sessions.Token(r); err == nil {
			v.LoggedIn = true
		}
	}

	var buf bytes.Buffer
	if err := h.render.Render(&buf, name, v); err != nil {
		logger.Error("Failed to render page",
			logger.String("page", name),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type jsonError struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

// expired handles an API 401: the cookie is dropped and the browser sent to
// /login. It reports whether err was one.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	h.sessions.Clear(w)
	if wantsJSON(r) {
		writeJSON(w, http.StatusUnauthorized, jsonError{Error: "Session expired, please login again", Redirect: "/login"})
		return true
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// redirectAlert sends the browser to path with one of the predefined alerts.
func redirectAlert(w http.ResponseWriter, r *http.Request, path, alert string) {
	http.Redirect(w, r, path+"?alert="+alert, http.StatusSeeOther)
}
