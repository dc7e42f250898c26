package handler

import (
	"errors"
	"net/http"

	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/Dan9191/community-forum/internal/service"
)

type formPage struct {
	Error    string
	Username string
	Age      string
}

// LoginForm renders the login page; logged in users go straight to the forum
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if sess.LoggedIn {
		return redirect(w, r, forumPath)
	}
	return h.render(w, http.StatusOK, "login", sess, formPage{})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := r.ParseForm(); err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid form", err)
	}
	username := r.PostFormValue("username")
	user, err := h.svc.Authenticate(r.Context(), username, r.PostFormValue("passphrase"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.Infof("Failed login for %q from %s", username, r.RemoteAddr)
		return h.render(w, http.StatusUnauthorized, "login", sess, formPage{Error: err.Error(), Username: username})
	}
	if err != nil {
		return err
	}
	if _, err := h.sessions.Issue(r.Context(), w, user.Username); err != nil {
		return err
	}
	return redirect(w, r, forumPath)
}

func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if sess.LoggedIn {
		return redirect(w, r, forumPath)
	}
	return h.render(w, http.StatusOK, "signup", sess, formPage{})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := r.ParseForm(); err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid form", err)
	}
	in := service.RegisterInput{
		Username:    r.PostFormValue("username"),
		Passphrase:  r.PostFormValue("passphrase"),
		Passphrase2: r.PostFormValue("passphrase2"),
		Age:         r.PostFormValue("age"),
	}
	user, err := h.svc.Register(r.Context(), in)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return h.render(w, http.StatusBadRequest, "signup", sess, formPage{Error: verr.Error(), Username: in.Username, Age: in.Age})
	}
	if err != nil {
		return err
	}
	if _, err := h.sessions.Issue(r.Context(), w, user.Username); err != nil {
		return err
	}
	return redirect(w, r, forumPath)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.log.Warnf("Failed to delete session: %v", err)
	}
	if sess.LoggedIn {
		h.log.Infof("User logged out: %s", sess.Username())
	}
	return redirect(w, r, loginPath)
}
