package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dan9191/community-forum/internal/middleware"
	"github.com/Dan9191/community-forum/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// multipartOverhead is the slack allowed on top of the avatar size for the
// rest of the multipart body
const multipartOverhead = 64 << 10

type profilePage struct {
	User *models.User
}

// Profile renders the session user from a fresh store read
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	user, err := h.svc.Profile(r.Context(), sess.Username())
	if err != nil {
		return err
	}
	return h.render(w, http.StatusOK, "profile", sess, profilePage{User: user})
}

func (h *Handler) SetName(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := r.ParseForm(); err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid form", err)
	}
	if err := h.svc.SetForumName(r.Context(), sess.Username(), r.PostFormValue("forumname")); err != nil {
		return err
	}
	return redirect(w, r, profilePath)
}

func (h *Handler) SetIntro(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	if err := r.ParseForm(); err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid form", err)
	}
	if err := h.svc.SetIntro(r.Context(), sess.Username(), r.PostFormValue("intro")); err != nil {
		return err
	}
	return redirect(w, r, profilePath)
}

// UpdateProfile stores an uploaded avatar. Submitting without a file is a no-op.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	limit := h.cfg.MaxAvatarBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return newStatusError(http.StatusRequestEntityTooLarge, "Avatar is too large", err)
		}
		return newStatusError(http.StatusBadRequest, "Invalid upload", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return redirect(w, r, profilePath)
	}
	if err != nil {
		return newStatusError(http.StatusBadRequest, "Invalid upload", err)
	}
	defer file.Close()

	if header.Size > limit {
		return newStatusError(http.StatusRequestEntityTooLarge, "Avatar is too large",
			fmt.Errorf("avatar is %d bytes, limit %d", header.Size, limit))
	}
	avatar, err := h.readAvatar(file, header)
	if err != nil {
		return err
	}
	if err := h.svc.SetAvatar(r.Context(), sess.Username(), *avatar); err != nil {
		return err
	}
	return redirect(w, r, profilePath)
}

// readAvatar spools the upload through a uniquely named temp file that is
// removed whatever the outcome
func (h *Handler) readAvatar(file multipart.File, header *multipart.FileHeader) (*models.Avatar, error) {
	if err := os.MkdirAll(h.cfg.UploadDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	path := filepath.Join(h.cfg.UploadDir, "avatar-"+uuid.NewString())
	tmp, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(path)

	n, err := io.Copy(tmp, io.LimitReader(file, h.cfg.MaxAvatarBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if n > h.cfg.MaxAvatarBytes {
		return nil, newStatusError(http.StatusRequestEntityTooLarge, "Avatar is too large",
			fmt.Errorf("avatar exceeds %d bytes", h.cfg.MaxAvatarBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, newStatusError(http.StatusUnsupportedMediaType, "Avatar must be an image",
			fmt.Errorf("rejected content type %q", contentType))
	}
	return &models.Avatar{Data: data, ContentType: contentType}, nil
}

// Avatar serves the stored avatar bytes of a user
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	username := mux.Vars(r)["username"]
	user, err := h.svc.Profile(r.Context(), username)
	if err != nil {
		return err
	}
	if user.Avatar == nil || len(user.Avatar.Data) == 0 {
		return newStatusError(http.StatusNotFound, "No avatar", fmt.Errorf("user %s has no avatar", username))
	}

	w.Header().Set("Content-Type", user.Avatar.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(user.Avatar.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Write(user.Avatar.Data)
	return nil
}
