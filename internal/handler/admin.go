package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dan9191/community-forum/internal/middleware"
)

// UpsertPostDB rewrites every post keyed on its own id and reports the counts
func (h *Handler) UpsertPostDB(w http.ResponseWriter, r *http.Request, sess *middleware.Session) error {
	report, err := h.svc.SyncPosts(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, report)
	return nil
}

// Healthz reports liveness and whether the store answers a ping
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Ping(ctx); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
