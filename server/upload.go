package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/validate"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/model"
	"github.com/heronhoga/bars-fe/web"
)

// UploadPage 上传页
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "upload", web.View{Title: "Upload", Nav: "upload", LoggedIn: true, Form: model.UploadForm{}})
}

// Upload validates the beat and its audio file, then forwards both upstream.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	view := web.View{Title: "Upload", Nav: "upload", LoggedIn: true}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Failed to read the upload form"
		if errors.As(err, &tooLarge) {
			msg = "File size must be less than 5MB"
		}
		view.Form = model.UploadForm{}
		view.Errors = map[string]string{"file": msg}
		h.page(w, r, http.StatusBadRequest, "upload", view)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := model.UploadForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Genre:       r.FormValue("genre"),
		Tags:        strings.TrimSpace(r.FormValue("tags")),
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		form.File = &model.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	// the file cannot be put back into the page
	view.Form = model.UploadForm{Title: form.Title, Description: form.Description, Genre: form.Genre, Tags: form.Tags}

	if errs := validate.Upload(form); !errs.Valid() {
		view.Errors = errs
		h.page(w, r, http.StatusBadRequest, "upload", view)
		return
	}

	msg, err := h.api.CreateBeat(r.Context(), GetTokenFromContext(r.Context()), form)
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		logger.Error("Upload failed",
			logger.String("title", form.Title),
			logger.ErrorField(err))
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			view.Alert = model.NewAlert(model.AlertError, "Upload Failed",
				api.Message(err, "We encountered an issue while uploading your beat. Please try again."), "Try Again")
		} else {
			view.Alert = model.NewAlert(model.AlertError, "Upload Error",
				"An unexpected error occurred while uploading your beat. Please check your internet connection and try again.", "Retry")
		}
		h.page(w, r, http.StatusBadGateway, "upload", view)
		return
	}

	logger.Info("Beat uploaded",
		logger.String("title", form.Title),
		logger.String("message", msg))
	view.Form = model.UploadForm{}
	view.Alert = model.NewAlert(model.AlertSuccess, "Beat Uploaded Successfully!",
		"Your beat has been uploaded and is now live on BARS! The community can now discover and enjoy your creation.", "Back to Home")
	view.Alert.Redirect = "/home"
	h.page(w, r, http.StatusOK, "upload", view)
}
