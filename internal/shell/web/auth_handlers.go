package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/artpar/askboard/internal/core/crypto"
	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/core/validation"
	"github.com/artpar/askboard/internal/shell/session"
	"github.com/artpar/askboard/internal/shell/store"
)

// Flash messages of the auth views.
const (
	MsgUserExists    = "User already exists."
	MsgUnknownUser   = "User does not exist."
	MsgWrongPassword = "Incorrect password."
)

// =============================================================================
// Auth Handlers
// =============================================================================

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var page signupPage

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "signup", page)
		return
	}

	page.Form = validation.UserCreateForm{
		Username:  r.PostFormValue("username"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
		Email:     r.PostFormValue("email"),
	}
	if page.Errors = validation.Validate(page.Form); page.Errors.Any() {
		h.render(w, r, http.StatusOK, "signup", page)
		return
	}

	hash, err := crypto.HashPassword(page.Form.Password1)
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}

	user := &domain.User{Username: page.Form.Username, Password: hash, Email: page.Form.Email}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) || errors.Is(err, store.ErrDuplicateEmail) {
			flash(r, MsgUserExists)
			h.render(w, r, http.StatusOK, "signup", page)
			return
		}
		h.serverError(w, r, "failed to create user", err)
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	page := loginPage{Action: loginAction(next)}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "login", page)
		return
	}

	page.Form = validation.UserLoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if page.Errors = validation.Validate(page.Form); page.Errors.Any() {
		h.render(w, r, http.StatusOK, "login", page)
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), page.Form.Username)
	switch {
	case isNotFound(err):
		flash(r, MsgUnknownUser)
		h.render(w, r, http.StatusOK, "login", page)
		return
	case err != nil:
		h.serverError(w, r, "failed to get user", err)
		return
	}

	if err := crypto.CheckPassword(user.Password, page.Form.Password); err != nil {
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.Error("failed to check password", "user_id", user.ID, "error", err)
		}
		flash(r, MsgWrongPassword)
		h.render(w, r, http.StatusOK, "login", page)
		return
	}

	session.FromContext(r.Context()).Login(user.ID)
	h.logger.Info("user logged in", "user_id", user.ID)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Clear()
	http.Redirect(w, r, "/", http.StatusFound)
}

func loginAction(next string) string {
	if next == "" {
		return "/auth/login/"
	}
	return "/auth/login/?" + url.Values{"next": {next}}.Encode()
}
