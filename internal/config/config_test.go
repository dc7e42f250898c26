package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DATABASE_URL", "memory://")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.Port != "4500" {
		t.Errorf("Port = %q, want 4500", cfg.Port)
	}
	if !cfg.GeneratedSecret || len(cfg.SessionSecret) != 32 {
		t.Errorf("expected a generated 32 byte secret, got %d bytes", len(cfg.SessionSecret))
	}
	if string(cfg.JWTSecret) != string(cfg.SessionSecret) {
		t.Errorf("JWTSecret should fall back to SessionSecret")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development mode")
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := fromEnv()
	if err == nil || !strings.Contains(err.Error(), "SESSION_SECRET") {
		t.Fatalf("expected SESSION_SECRET error, got %v", err)
	}
}

func TestHexSecretAndAdmins(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", strings.Repeat("ab", 32))
	t.Setenv("ADMIN_USERS", " alice, ,bob ")
	t.Setenv("mongodb_URI", "mongodb://db:27017")
	t.Setenv("DATABASE_URL", "")

	cfg, err := fromEnv()
	if err == nil {
		t.Fatalf("empty DATABASE_URL must fail, got %+v", cfg)
	}

	t.Setenv("DATABASE_URL", "mongodb://db:27017")
	cfg, err = fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if len(cfg.SessionSecret) != 32 {
		t.Errorf("hex secret decoded to %d bytes, want 32", len(cfg.SessionSecret))
	}
	if !cfg.IsAdmin("alice") || !cfg.IsAdmin("bob") || cfg.IsAdmin("") {
		t.Errorf("AdminUsers = %q", cfg.AdminUsers)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"DB_TIMEOUT":             "soon",
		"SESSION_BACKEND":        "etcd",
		"SESSION_ENCRYPTION_KEY": "short",
		"MAX_AVATAR_BYTES":       "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv(key, val)
			if _, err := fromEnv(); err == nil {
				t.Fatalf("%s=%q should be rejected", key, val)
			}
		})
	}
}
