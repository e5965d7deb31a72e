package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// セッションストアの種類
const (
	SessionStoreFile     = "file"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	BackendURL     string
	RequestTimeout time.Duration
	APIRateLimit   int
	APIRateBurst   int

	// Console
	ConsoleHost string
	ConsolePort string

	// Session
	SessionStore     string
	SessionFile      string
	SessionProfile   string
	SessionKeyPrefix string
	DatabaseURL      string
	RedisURL         string
	// SessionRetentionDays は migrate 実行時に他プロファイルの古い行を削除する日数（0で無効）
	SessionRetentionDays int

	// Notifications
	NotificationCapacity int

	// Logging
	LogLevel string
}

// Addr はコンソールの待ち受けアドレスを返す。
func (c *Config) Addr() string {
	return c.ConsoleHost + ":" + c.ConsolePort
}

// ConsoleURL はコンソール自身のURLを返す。healthcheckコマンドが使う。
func (c *Config) ConsoleURL() string {
	host := c.ConsoleHost
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + c.ConsolePort
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や、セッションストアの設定が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BackendURL = strings.TrimRight(os.Getenv("BACKEND_URL"), "/")
	if cfg.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}

	cfg.SessionStore = strings.ToLower(getEnvString("SESSION_STORE", SessionStoreFile))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	switch cfg.SessionStore {
	case SessionStoreFile:
	case SessionStorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case SessionStoreRedis:
		if cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (want file, postgres or redis)", cfg.SessionStore)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 60*time.Second)
	cfg.APIRateLimit = getEnvInt("API_RATE_LIMIT", 120)
	cfg.APIRateBurst = getEnvInt("API_RATE_BURST", 20)
	cfg.ConsoleHost = getEnvString("CONSOLE_HOST", "127.0.0.1")
	cfg.ConsolePort = getEnvString("CONSOLE_PORT", "3000")
	cfg.SessionFile = getEnvString("SESSION_FILE", defaultSessionFile())
	cfg.SessionProfile = getEnvString("SESSION_PROFILE", "default")
	cfg.SessionKeyPrefix = getEnvString("SESSION_KEY_PREFIX", "leadman:session:")
	cfg.SessionRetentionDays = getEnvInt("SESSION_RETENTION_DAYS", 90)
	cfg.NotificationCapacity = getEnvInt("NOTIFICATION_CAPACITY", 50)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// defaultSessionFile は $HOME/.leadman/session.json を返す。
// ホームディレクトリが取得できない場合はカレントディレクトリに置く。
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".leadman", "session.json")
	}
	return filepath.Join(home, ".leadman", "session.json")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
