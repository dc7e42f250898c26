package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/gorilla/securecookie"
)

// CookieName is the name of the browser cookie holding the session id.
const CookieName = "forum_session"

// ErrNoCookie is returned when the request carries no usable session cookie.
var ErrNoCookie = errors.New("no session cookie")

// Manager ties the session cookie to the server-side Store
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

// NewManager creates a manager. encryptionKey may be nil to only sign cookies.
func NewManager(store Store, hashKey, encryptionKey []byte, ttl time.Duration, secure bool) *Manager {
	codec := securecookie.New(hashKey, encryptionKey)
	codec.MaxAge(int(ttl / time.Second))
	return &Manager{store: store, codec: codec, ttl: ttl, secure: secure}
}

// Issue creates a session for username and sets the cookie on w.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, username string) (*models.Session, error) {
	sess, err := m.store.Create(ctx, username, m.ttl)
	if err != nil {
		return nil, err
	}
	encoded, err := m.codec.Encode(CookieName, sess.ID)
	if err != nil {
		m.store.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Load resolves the request cookie to a live session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoCookie
	}
	var id string
	if err := m.codec.Decode(CookieName, cookie.Value, &id); err != nil {
		// tampered, signed with an old key, or past MaxAge
		return nil, fmt.Errorf("failed to decode session cookie: %w", err)
	}
	return m.store.Get(ctx, id)
}

// Destroy removes the server session (if any) and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if cookie, cerr := r.Cookie(CookieName); cerr == nil {
		var id string
		if m.codec.Decode(CookieName, cookie.Value, &id) == nil {
			err = m.store.Delete(ctx, id)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
