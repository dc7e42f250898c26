package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/Dan9191/community-forum/internal/repository"
	"github.com/Dan9191/community-forum/internal/session"
	"github.com/sirupsen/logrus"
)

// Session is the per-request login state handed to route handlers
type Session struct {
	LoggedIn bool
	User     *models.User
	ID       string
}

// Username returns the logged in username or "" for anonymous requests
func (s *Session) Username() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Username
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying sess
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the request session. It is never nil.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// SessionLoader resolves the session cookie of a request
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) (*models.Session, error)
}

// UserLoader fetches the user a session belongs to
type UserLoader interface {
	Profile(ctx context.Context, username string) (*models.User, error)
}

// LoadSession attaches a Session to every request. Bad or stale cookies yield
// a logged-out session, never an error.
func LoadSession(sessions SessionLoader, users UserLoader, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{}
			stored, err := sessions.Load(r.Context(), r)
			switch {
			case err == nil:
				user, uerr := users.Profile(r.Context(), stored.Username)
				if uerr == nil {
					sess = &Session{LoggedIn: true, User: user, ID: stored.ID}
				} else if errors.Is(uerr, repository.ErrNotFound) {
					log.Debugf("Session %s belongs to missing user %s", stored.ID, stored.Username)
				} else {
					log.Warnf("Failed to load session user %s: %v", stored.Username, uerr)
				}
			case errors.Is(err, session.ErrNoCookie):
			default:
				log.Debugf("Ignoring session cookie: %v", err)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireLogin redirects anonymous requests to loginPath
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).LoggedIn {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
