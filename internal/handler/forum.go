package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Dan9191/community-forum/internal/feed"
	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/Dan9191/community-forum/internal/models"
	"github.com/Dan9191/community-forum/internal/service"
	"github.com/gorilla/mux"
)

// feedSize is the number of posts in the Atom feed
const feedSize = 25

type forumPage struct {
	Items []models.FeedItem
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	return h.render(w, http.StatusOK, "about", sess, nil)
}

// Forum renders every post, newest first
func (h *Handler) Forum(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	items, err := h.svc.Feed(r.Context())
	if err != nil {
		return err
	}
	return h.render(w, http.StatusOK, "forum", sess, forumPage{Items: items})
}

// RemovePost deletes the post only when the session user wrote it
func (h *Handler) RemovePost(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if _, err := h.svc.RemovePost(r.Context(), sess.Username(), mux.Vars(r)["postId"]); err != nil {
		return err
	}
	return redirect(w, r, forumPath)
}

func (h *Handler) AddPostForm(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	return h.render(w, http.StatusOK, "addPost", sess, nil)
}

func (h *Handler) AddPost(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := r.ParseForm(); err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid form", err)
	}
	_, err := h.svc.CreatePost(r.Context(), sess.Username(), service.NewPostInput{
		Title:    r.PostFormValue("title"),
		Content:  r.PostFormValue("content"),
		Keywords: r.PostForm["keywords"],
	})
	if err != nil {
		return err
	}
	return redirect(w, r, forumPath)
}

// FeedAtom serves the most recent posts as an Atom document
func (h *Handler) FeedAtom(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	items, err := h.svc.Feed(r.Context())
	if err != nil {
		return err
	}
	if len(items) > feedSize {
		items = items[:feedSize]
	}

	base := fmt.Sprintf("%s://%s/", scheme(r), r.Host)
	f := &feed.Feed{Title: "Community Forum", Link: base, Updated: h.now()}
	if len(items) > 0 {
		f.Updated = items[0].Post.CreatedAt
	}
	for _, item := range items {
		f.AddEntry(&feed.Entry{
			ID:          "urn:forum:post:" + item.Post.ID,
			Title:       item.Post.Title,
			Link:        base + "#post-" + item.Post.ID,
			Author:      item.ForumName,
			ContentHTML: item.Post.Content,
			Updated:     item.Post.CreatedAt,
		})
	}

	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.Write(buf.Bytes())
	return nil
}

func scheme(r *http.Request) string {
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}
