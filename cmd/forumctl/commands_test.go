package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/community-forum/internal/models"
	"github.com/Dan9191/community-forum/internal/repository"
	"github.com/Dan9191/community-forum/internal/service"
	"github.com/Dan9191/community-forum/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassphrase(t *testing.T) {
	var out bytes.Buffer
	if err := hashPassphrase(strings.NewReader("hunter22\n"), &out); err != nil {
		t.Fatalf("hashPassphrase: %v", err)
	}
	hashed := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte("hunter22")); err != nil {
		t.Fatalf("hash does not match: %v", err)
	}
	if err := hashPassphrase(strings.NewReader(""), &out); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestSyncPosts(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, log)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.CreatePost(ctx, "alice", service.NewPostInput{Title: "t"}); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}

	var out bytes.Buffer
	if err := syncPosts(ctx, svc, &out); err != nil {
		t.Fatalf("syncPosts: %v", err)
	}
	var report models.SyncReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if report.Total != 2 || report.Stored != 2 {
		t.Fatalf("report = %+v", report)
	}
}

func TestAdminTokenCommand(t *testing.T) {
	secret := "forumctl-test-secret-forumctl-test-secret"
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_ENCRYPTION_KEY", "")
	t.Setenv("DATABASE_URL", "memory://")

	cmd := newRootCmd(logrus.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"admin-token", "--subject", "ops", "--ttl", "2m"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	claims, err := utils.ParseAdminToken([]byte(secret), strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if claims.Subject != "ops" || time.Until(claims.ExpiresAt.Time) > 2*time.Minute {
		t.Fatalf("claims = %+v", claims)
	}
}
