package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/heronhoga/bars-fe/cache"
	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/feed"
	"github.com/heronhoga/bars-fe/core/validate"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

const (
	tabBeats = "beats"
	tabLiked = "liked"
)

type profileData struct {
	Profile     *model.Profile
	Tab         string
	Beats       []model.Beat
	Pager       web.PagerView
	BeatsTabURL string
	LikedTabURL string
	Error       string
}

type beatEditData struct {
	Beat model.Beat
}

// profileURL keeps the page of both tabs so switching back lands where the user was.
func profileURL(tab string, beatsPage, likedPage int) string {
	q := url.Values{
		"tab":   {tab},
		"beats": {strconv.Itoa(beatsPage)},
		"liked": {strconv.Itoa(likedPage)},
	}
	return "/profile?" + q.Encode()
}

// ProfilePage shows the account summary and either the user's beats or the
// beats they liked. Each tab keeps its own page number.
func (h *Handler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := GetTokenFromContext(ctx)

	tab := r.URL.Query().Get("tab")
	if tab != tabLiked {
		tab = tabBeats
	}
	beatsPage, likedPage := pageParam(r, "beats"), pageParam(r, "liked")

	profile, err := h.api.Profile(ctx, token)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Warn("Failed to fetch profile", logger.ErrorField(err))
	}

	data := profileData{Profile: profile, Tab: tab}

	fetch := func(ctx context.Context, p int) (*model.Page[model.Beat], error) {
		return h.api.BeatsByUser(ctx, token, p)
	}
	page := beatsPage
	if tab == tabLiked {
		fetch = func(ctx context.Context, p int) (*model.Page[model.Beat], error) {
			return h.api.LikedBeatsByUser(ctx, token, p)
		}
		page = likedPage
	}

	res, err := feed.FetchPage[model.Beat](ctx, fetch, page)
	switch {
	case h.expired(w, r, err):
		return
	case err != nil:
		logger.Warn("Failed to fetch profile beats",
			logger.String("tab", tab),
			logger.ErrorField(err))
		data.Error = "Failed to fetch beats"
	default:
		data.Beats = res.Items
		page = res.Pager.Current
		if tab == tabLiked {
			likedPage = page
		} else {
			beatsPage = page
		}
		data.Pager = web.NewPagerView(res.Pager, func(p int) string {
			if tab == tabLiked {
				return profileURL(tab, beatsPage, p)
			}
			return profileURL(tab, p, likedPage)
		})
	}
	data.BeatsTabURL = profileURL(tabBeats, beatsPage, likedPage)
	data.LikedTabURL = profileURL(tabLiked, beatsPage, likedPage)

	h.page(w, r, http.StatusOK, "profile", web.View{Title: "Profile", Nav: "profile", LoggedIn: true, Data: data})
}

// DeleteBeat removes one of the user's beats; the confirm happens in the page.
func (h *Handler) DeleteBeat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, err := h.api.DeleteBeat(r.Context(), GetTokenFromContext(r.Context()), id)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Warn("Failed to delete beat", logger.String("beat_id", id), logger.ErrorField(err))
		redirectAlert(w, r, "/profile", "delete-failed")
		return
	}
	logger.Info("Beat deleted", logger.String("beat_id", id))
	redirectAlert(w, r, "/profile", "deleted")
}

// SaveDraft stores the chosen beat so the edit page can prefill from it.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	page := 1
	if n, err := strconv.Atoi(r.PostFormValue("page")); err == nil && n > 0 {
		page = n
	}

	res, err := h.api.BeatsByUser(ctx, GetTokenFromContext(ctx), page)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Warn("Failed to fetch beats for draft", logger.ErrorField(err))
		redirectAlert(w, r, "/profile", "draft-missing")
		return
	}

	for _, beat := range res.Data {
		if beat.ID != id {
			continue
		}
		if err := h.store.SaveDraft(ctx, GetVisitorFromContext(ctx), beat); err != nil {
			logger.Error("Failed to save draft", logger.String("beat_id", id), logger.ErrorField(err))
			redirectAlert(w, r, "/profile", "draft-missing")
			return
		}
		http.Redirect(w, r, "/profile/beat/"+url.PathEscape(id)+"/edit", http.StatusSeeOther)
		return
	}
	redirectAlert(w, r, "/profile", "draft-missing")
}

// CancelEdit drops the draft and goes back to the profile.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteDraft(r.Context(), GetVisitorFromContext(r.Context())); err != nil {
		logger.Warn("Failed to delete draft", logger.ErrorField(err))
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// draft returns the stored beat for the {id} in the path.
func (h *Handler) draft(w http.ResponseWriter, r *http.Request) (model.Beat, bool) {
	id := mux.Vars(r)["id"]
	beat, err := h.store.Draft(r.Context(), GetVisitorFromContext(r.Context()), id)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			logger.Warn("Failed to load draft", logger.String("beat_id", id), logger.ErrorField(err))
		}
		redirectAlert(w, r, "/profile", "draft-missing")
		return model.Beat{}, false
	}
	return beat, true
}

// BeatEditPage 编辑页, prefilled from the draft
func (h *Handler) BeatEditPage(w http.ResponseWriter, r *http.Request) {
	beat, ok := h.draft(w, r)
	if !ok {
		return
	}
	h.page(w, r, http.StatusOK, "beat_edit", web.View{
		Title: "Edit beat", Nav: "profile", LoggedIn: true,
		Form: beat.Update(), Data: beatEditData{Beat: beat},
	})
}

// BeatEdit validates and saves the beat fields.
func (h *Handler) BeatEdit(w http.ResponseWriter, r *http.Request) {
	beat, ok := h.draft(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	update := model.BeatUpdate{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Genre:       r.PostFormValue("genre"),
		Tags:        strings.TrimSpace(r.PostFormValue("tags")),
	}
	view := web.View{
		Title: "Edit beat", Nav: "profile", LoggedIn: true,
		Form: update, Data: beatEditData{Beat: beat},
	}

	if errs := validate.BeatUpdate(update); !errs.Valid() {
		view.Errors = errs
		h.page(w, r, http.StatusBadRequest, "beat_edit", view)
		return
	}

	_, err := h.api.EditBeat(r.Context(), GetTokenFromContext(r.Context()), beat.ID, update)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Warn("Failed to update beat", logger.String("beat_id", beat.ID), logger.ErrorField(err))
		view.Alert = model.NewAlert(model.AlertError, "Update Failed",
			api.Message(err, "We encountered an issue while updating your beat. Please check your connection and try again."), "Try Again")
		h.page(w, r, http.StatusBadGateway, "beat_edit", view)
		return
	}

	if err := h.store.DeleteDraft(r.Context(), GetVisitorFromContext(r.Context())); err != nil {
		logger.Warn("Failed to delete draft", logger.ErrorField(err))
	}
	view.Alert = model.NewAlert(model.AlertSuccess, "Beat Updated Successfully!",
		"Your beat information has been updated and is now live. The changes will be visible to all users.", "Back to Profile")
	view.Alert.Redirect = "/profile"
	h.page(w, r, http.StatusOK, "beat_edit", view)
}

// ProfileEditPage 编辑个人资料
func (h *Handler) ProfileEditPage(w http.ResponseWriter, r *http.Request) {
	profile, err := h.api.Profile(r.Context(), GetTokenFromContext(r.Context()))
	if h.expired(w, r, err) {
		return
	}
	view := web.View{Title: "Edit profile", Nav: "profile", LoggedIn: true, Form: model.ProfileForm{}}
	if err != nil {
		logger.Warn("Failed to fetch profile", logger.ErrorField(err))
		view.Errors = map[string]string{"general": "Failed to fetch profile data"}
	} else {
		view.Form = profile.Form()
	}
	h.page(w, r, http.StatusOK, "profile_edit", view)
}

// ProfileEdit saves region and discord. The page asks for confirmation before posting.
func (h *Handler) ProfileEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	token := GetTokenFromContext(ctx)

	form := model.ProfileForm{
		ID:      r.PostFormValue("id"),
		Region:  r.PostFormValue("region"),
		Discord: strings.TrimSpace(r.PostFormValue("discord")),
	}
	// username is display only and comes from upstream
	if profile, err := h.api.Profile(ctx, token); err == nil {
		form.Username = profile.Username
		if form.ID == "" {
			form.ID = profile.ID
		}
	} else if h.expired(w, r, err) {
		return
	}
	view := web.View{Title: "Edit profile", Nav: "profile", LoggedIn: true, Form: form}

	if errs := validate.Profile(form); !errs.Valid() {
		view.Errors = errs
		h.page(w, r, http.StatusBadRequest, "profile_edit", view)
		return
	}

	_, err := h.api.UpdateProfile(ctx, token, form)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Warn("Failed to update profile", logger.ErrorField(err))
		view.Alert = model.NewAlert(model.AlertError, "Failed",
			api.Message(err, "Failed to the update profile data"), "OK")
		h.page(w, r, http.StatusBadGateway, "profile_edit", view)
		return
	}

	view.Alert = model.NewAlert(model.AlertSuccess, "Profile Data Updated", "Your profile data has been updated", "OK")
	view.Alert.Redirect = "/profile"
	h.page(w, r, http.StatusOK, "profile_edit", view)
}
