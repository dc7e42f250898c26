package handler

import (
	"net/http"
	"time"

	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/gorilla/mux"
)

// Requests slower than this are logged as warnings
const (
	slowRequest    = time.Second
	slowRequestDev = 100 * time.Millisecond
)

// Routes builds the application router wrapped in session loading and request logging
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	// Public routes
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/login", h.wrap(h.LoginForm)).Methods(http.MethodGet)
	r.Handle("/login", h.wrap(h.Login)).Methods(http.MethodPost)
	r.Handle("/signup", h.wrap(h.SignupForm)).Methods(http.MethodGet)
	r.Handle("/signup", h.wrap(h.Signup)).Methods(http.MethodPost)
	r.Handle("/logout", h.wrap(h.Logout)).Methods(http.MethodGet)

	// Protected routes
	auth := middleware.RequireLogin(loginPath)
	r.Handle("/", auth(h.wrap(h.Forum))).Methods(http.MethodGet)
	r.Handle("/about", auth(h.wrap(h.About))).Methods(http.MethodGet)
	r.Handle("/forum/remove/{postId}", auth(h.wrap(h.RemovePost))).Methods(http.MethodGet)
	r.Handle("/addPost", auth(h.wrap(h.AddPostForm))).Methods(http.MethodGet)
	r.Handle("/addPost", auth(h.wrap(h.AddPost))).Methods(http.MethodPost)
	r.Handle("/profile", auth(h.wrap(h.Profile))).Methods(http.MethodGet)
	r.Handle("/setName", auth(h.wrap(h.SetName))).Methods(http.MethodPost)
	r.Handle("/setIntro", auth(h.wrap(h.SetIntro))).Methods(http.MethodPost)
	r.Handle("/updateProfile", auth(h.wrap(h.UpdateProfile))).Methods(http.MethodPost)
	r.Handle("/avatar/{username}", auth(h.wrap(h.Avatar))).Methods(http.MethodGet)
	r.Handle("/feed.atom", auth(h.wrap(h.FeedAtom))).Methods(http.MethodGet)

	// Admin routes
	admin := middleware.RequireAdmin(h.cfg.JWTSecret, h.cfg.IsAdmin, h.log)
	r.Handle("/upsertPostDB", admin(h.wrap(h.UpsertPostDB))).Methods(http.MethodGet)

	slow := slowRequest
	if h.cfg.IsDevelopment() {
		slow = slowRequestDev
	}
	logged := middleware.RequestLogger(h.log, slow)(r)
	return middleware.LoadSession(h.sessions, h.svc, h.log)(logged)
}
