package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/Dan9191/community-forum/internal/repository"
)

// StatusError is an error carrying the HTTP status it should be reported with
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StatusError) Unwrap() error { return e.Err }

func newStatusError(status int, msg string, err error) *StatusError {
	return &StatusError{Status: status, Message: msg, Err: err}
}

// statusOf picks the response status and public message for err
func statusOf(err error) (int, string) {
	var serr *StatusError
	switch {
	case errors.As(err, &serr):
		msg := serr.Message
		if msg == "" {
			msg = http.StatusText(serr.Status)
		}
		return serr.Status, msg
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, http.StatusText(http.StatusConflict)
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

type errorPage struct {
	Status  int
	Message string
	Details string
}

// renderError is the single place handler errors are turned into responses
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	entry := h.log.WithField("path", r.URL.Path).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Errorf("Request failed: %v", err)
	} else {
		entry.Warnf("Request rejected: %v", err)
	}

	page := errorPage{Status: status, Message: msg}
	if h.cfg.IsDevelopment() {
		page.Details = err.Error()
	}
	sess := middleware.FromContext(r.Context())
	if rerr := h.render(w, status, "error", sess, page); rerr != nil {
		h.log.Errorf("Failed to render error page: %v", rerr)
		http.Error(w, msg, status)
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, newStatusError(http.StatusNotFound, "Page not found", fmt.Errorf("no route for %s %s", r.Method, r.URL.Path)))
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, newStatusError(http.StatusMethodNotAllowed, "Method not allowed", fmt.Errorf("%s not allowed on %s", r.Method, r.URL.Path)))
}
