package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// Runs against a live server only when FORUM_TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FORUM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FORUM_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, os.Getenv("FORUM_TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	sess, err := store.Create(ctx, "alice", time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
