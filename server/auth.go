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

// LoginPage 登录页
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "login", web.View{Title: "Login", Nav: "login", Form: model.LoginForm{}})
}

// Login validates the form locally, then exchanges it for a session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := model.LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	view := web.View{Title: "Login", Nav: "login", Form: model.LoginForm{Username: form.Username}}

	if errs := validate.Login(form); !errs.Valid() {
		view.Errors = errs
		h.page(w, r, http.StatusBadRequest, "login", view)
		return
	}

	token, err := h.api.Login(r.Context(), form)
	if err != nil {
		logger.Warn("Login failed",
			logger.String("username", form.Username),
			logger.ErrorField(err))
		view.Errors = map[string]string{"general": loginFailure(err)}
		h.page(w, r, http.StatusUnauthorized, "login", view)
		return
	}

	h.sessions.SetToken(w, token)
	redirectAlert(w, r, "/home", "logged-in")
}

// loginFailure picks the message shown above the login form.
func loginFailure(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return api.Message(err, "Invalid username or password. Please try again.")
	case errors.Is(err, api.ErrInvalidResponse):
		return "Invalid username or password. Please try again."
	default:
		return "Login failed. Please try again later."
	}
}

// RegisterPage 注册页
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "register", web.View{Title: "Register", Nav: "register", Form: model.RegisterForm{}})
}

// Register validates the form locally and creates the account upstream.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form := model.RegisterForm{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		Region:          r.PostFormValue("region"),
		Discord:         strings.TrimSpace(r.PostFormValue("discord")),
	}
	// passwords never go back into the page
	view := web.View{Title: "Register", Nav: "register", Form: model.RegisterForm{
		Username: form.Username, Region: form.Region, Discord: form.Discord,
	}}

	if errs := validate.Register(form); !errs.Valid() {
		view.Errors = errs
		h.page(w, r, http.StatusBadRequest, "register", view)
		return
	}

	if _, err := h.api.Register(r.Context(), form); err != nil {
		logger.Warn("Registration failed",
			logger.String("username", form.Username),
			logger.ErrorField(err))
		view.Errors = map[string]string{"general": api.Message(err, "Registration failed. Please try again.")}
		h.page(w, r, http.StatusBadRequest, "register", view)
		return
	}

	redirectAlert(w, r, "/login", "registered")
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
