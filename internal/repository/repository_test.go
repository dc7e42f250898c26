package repository

import (
	"context"
	"testing"
)

func TestOpenSchemes(t *testing.T) {
	repo, err := Open(context.Background(), "memory://", "forum", 0)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := repo.(*MemoryRepository); !ok {
		t.Fatalf("memory:// opened %T", repo)
	}

	if _, err := Open(context.Background(), "mysql://localhost/forum", "forum", 0); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
