package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// optionalEnvVars はテスト実行環境の値に影響されないよう空にする環境変数。
var optionalEnvVars = []string{
	"SESSION_STORE", "SESSION_FILE", "SESSION_PROFILE", "SESSION_KEY_PREFIX",
	"DATABASE_URL", "REDIS_URL", "SESSION_RETENTION_DAYS", "REQUEST_TIMEOUT", "API_RATE_LIMIT",
	"API_RATE_BURST", "CONSOLE_HOST", "CONSOLE_PORT", "NOTIFICATION_CAPACITY",
	"LOG_LEVEL",
}

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range optionalEnvVars {
		t.Setenv(key, "")
	}
	t.Setenv("BACKEND_URL", "http://localhost:8000/")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("BackendURL = %q, want %q", cfg.BackendURL, "http://localhost:8000")
	}
	if cfg.SessionStore != SessionStoreFile {
		t.Errorf("SessionStore = %q, want %q", cfg.SessionStore, SessionStoreFile)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("HOME", "/home/alice")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Backend defaults
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, 60*time.Second)
	}
	if cfg.APIRateLimit != 120 {
		t.Errorf("APIRateLimit = %d, want %d", cfg.APIRateLimit, 120)
	}
	if cfg.APIRateBurst != 20 {
		t.Errorf("APIRateBurst = %d, want %d", cfg.APIRateBurst, 20)
	}

	// Console defaults
	if cfg.Addr() != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "127.0.0.1:3000")
	}

	// Session defaults
	want := filepath.Join("/home/alice", ".leadman", "session.json")
	if cfg.SessionFile != want {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, want)
	}
	if cfg.SessionProfile != "default" {
		t.Errorf("SessionProfile = %q, want %q", cfg.SessionProfile, "default")
	}
	if cfg.SessionKeyPrefix != "leadman:session:" {
		t.Errorf("SessionKeyPrefix = %q, want %q", cfg.SessionKeyPrefix, "leadman:session:")
	}

	if cfg.SessionRetentionDays != 90 {
		t.Errorf("SessionRetentionDays = %d, want %d", cfg.SessionRetentionDays, 90)
	}

	if cfg.NotificationCapacity != 50 {
		t.Errorf("NotificationCapacity = %d, want %d", cfg.NotificationCapacity, 50)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnvVars(t)

	t.Setenv("REQUEST_TIMEOUT", "90s")
	t.Setenv("API_RATE_LIMIT", "30")
	t.Setenv("API_RATE_BURST", "5")
	t.Setenv("CONSOLE_HOST", "0.0.0.0")
	t.Setenv("CONSOLE_PORT", "4000")
	t.Setenv("SESSION_FILE", "/tmp/leadman/session.json")
	t.Setenv("NOTIFICATION_CAPACITY", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, 90*time.Second)
	}
	if cfg.APIRateLimit != 30 {
		t.Errorf("APIRateLimit = %d, want %d", cfg.APIRateLimit, 30)
	}
	if cfg.APIRateBurst != 5 {
		t.Errorf("APIRateBurst = %d, want %d", cfg.APIRateBurst, 5)
	}
	if cfg.Addr() != "0.0.0.0:4000" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:4000")
	}
	if cfg.ConsoleURL() != "http://127.0.0.1:4000" {
		t.Errorf("ConsoleURL() = %q, want %q", cfg.ConsoleURL(), "http://127.0.0.1:4000")
	}
	if cfg.SessionFile != "/tmp/leadman/session.json" {
		t.Errorf("SessionFile = %q, want %q", cfg.SessionFile, "/tmp/leadman/session.json")
	}
	if cfg.NotificationCapacity != 10 {
		t.Errorf("NotificationCapacity = %d, want %d", cfg.NotificationCapacity, 10)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	setRequiredEnvVars(t)

	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("API_RATE_LIMIT", "-1")
	t.Setenv("NOTIFICATION_CAPACITY", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, 60*time.Second)
	}
	if cfg.APIRateLimit != 120 {
		t.Errorf("APIRateLimit = %d, want %d", cfg.APIRateLimit, 120)
	}
	if cfg.NotificationCapacity != 50 {
		t.Errorf("NotificationCapacity = %d, want %d", cfg.NotificationCapacity, 50)
	}
}

func TestLoad_MissingBackendURL_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("BACKEND_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing BACKEND_URL, got nil")
	}
}

func TestLoad_SessionStores(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "postgres with database url",
			env:  map[string]string{"SESSION_STORE": "postgres", "DATABASE_URL": "postgres://localhost/leadman"},
		},
		{
			name:    "postgres without database url",
			env:     map[string]string{"SESSION_STORE": "postgres"},
			wantErr: "DATABASE_URL",
		},
		{
			name: "redis with redis url",
			env:  map[string]string{"SESSION_STORE": "Redis", "REDIS_URL": "redis://localhost:6379/0"},
		},
		{
			name:    "redis without redis url",
			env:     map[string]string{"SESSION_STORE": "redis"},
			wantErr: "REDIS_URL",
		},
		{
			name:    "unknown store",
			env:     map[string]string{"SESSION_STORE": "memcached"},
			wantErr: "SESSION_STORE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnvVars(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cfg.SessionStore != strings.ToLower(tt.env["SESSION_STORE"]) {
				t.Errorf("SessionStore = %q", cfg.SessionStore)
			}
		})
	}
}
