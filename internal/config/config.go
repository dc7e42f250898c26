package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	DBName      string
	DBTimeout   time.Duration

	SessionSecret        []byte
	SessionEncryptionKey []byte
	SessionTTL           time.Duration
	SessionBackend       string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int

	JWTSecret  []byte
	AdminUsers []string

	UploadDir      string
	MaxAvatarBytes int64

	// GeneratedSecret is set when SessionSecret was generated at startup.
	GeneratedSecret bool
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first; real environment wins.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "4500"),
		Env:            strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", getEnv("mongodb_URI", "memory://")),
		DBName:         getEnv("DB_NAME", "forum"),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		UploadDir:      getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "forum-uploads")),
		AdminUsers:     splitList(getEnv("ADMIN_USERS", "")),
	}

	var err error
	if cfg.DBTimeout, err = time.ParseDuration(getEnv("DB_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid DB_TIMEOUT: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.MaxAvatarBytes, err = strconv.ParseInt(getEnv("MAX_AVATAR_BYTES", "2097152"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_AVATAR_BYTES: %w", err)
	}

	cfg.SessionSecret = decodeKey(getEnv("SESSION_SECRET", ""))
	cfg.SessionEncryptionKey = decodeKey(getEnv("SESSION_ENCRYPTION_KEY", ""))
	cfg.JWTSecret = decodeKey(getEnv("JWT_SECRET", ""))

	if len(cfg.SessionSecret) == 0 {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = securecookie.GenerateRandomKey(32)
		cfg.GeneratedSecret = true
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes, got %d", len(cfg.SessionSecret))
	}
	switch len(cfg.SessionEncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("SESSION_ENCRYPTION_KEY must be 16, 24, or 32 bytes, got %d", len(cfg.SessionEncryptionKey))
	}
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = cfg.SessionSecret
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionBackend != "memory" && cfg.SessionBackend != "redis" {
		return nil, fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", cfg.SessionBackend)
	}
	if cfg.MaxAvatarBytes <= 0 {
		return nil, fmt.Errorf("MAX_AVATAR_BYTES must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether detailed errors may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c *Config) IsAdmin(username string) bool {
	for _, admin := range c.AdminUsers {
		if admin == username {
			return true
		}
	}
	return false
}

// decodeKey accepts hex-encoded keys and falls back to the raw string.
func decodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	if b, err := hex.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
