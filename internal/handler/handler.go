package handler

import (
	"net/http"
	"time"

	"github.com/Dan9191/community-forum/internal/config"
	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/Dan9191/community-forum/internal/service"
	"github.com/Dan9191/community-forum/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	loginPath   = "/login"
	forumPath   = "/"
	profilePath = "/profile"
)

type Handler struct {
	svc       *service.Service
	sessions  *session.Manager
	cfg       *config.Config
	log       *logrus.Logger
	templates *templates
	now       func() time.Time
}

func NewHandler(svc *service.Service, sessions *session.Manager, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		svc:       svc,
		sessions:  sessions,
		cfg:       cfg,
		log:       log,
		templates: mustLoadTemplates(),
		now:       time.Now,
	}
}

// appHandler is a route handler that receives the request session explicitly
// and reports failures to the central error renderer.
type appHandler func(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error

func (h *Handler) wrap(fn appHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r, middleware.FromContext(r.Context())); err != nil {
			h.renderError(w, r, err)
		}
	})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) error {
	http.Redirect(w, r, path, http.StatusSeeOther)
	return nil
}
