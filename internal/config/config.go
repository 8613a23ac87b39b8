package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/TheLion102009/lioncraft-wiki/internal/logger"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Client
	WikiAPIURL  string
	HTTPTimeout time.Duration // 0は無制限

	// Image pre-flight
	ImageProbe        bool
	ImageProbeTimeout time.Duration

	// Server
	ServerPort        string
	DatabaseURL       string // 空の場合はインメモリリポジトリを使う
	CORSAllowedOrigin string
	RateLimitAuth     int // req/min/IP

	// Logging
	LogLevel slog.Level

	// Metrics
	MetricsPushURL string // 空の場合、CLIはメトリクスを送信しない

	// CLI
	WikiPassword string
}

// Load は環境変数からConfigを読み込む。
// 必須の環境変数はなく、値が不正な場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{
		WikiAPIURL:        getEnvString("WIKI_API_URL", "http://localhost:5000"),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 0),
		ImageProbe:        getEnvBool("IMAGE_PROBE", false),
		ImageProbeTimeout: getEnvDuration("IMAGE_PROBE_TIMEOUT", 5*time.Second),
		ServerPort:        getEnvString("SERVER_PORT", "5000"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimitAuth:     getEnvInt("RATE_LIMIT_AUTH", 10),
		WikiPassword:      os.Getenv("WIKI_PASSWORD"),
		MetricsPushURL:    os.Getenv("METRICS_PUSH_URL"),
	}

	if !isHTTPURL(cfg.WikiAPIURL) {
		return nil, fmt.Errorf("invalid WIKI_API_URL: %q", cfg.WikiAPIURL)
	}
	if cfg.MetricsPushURL != "" && !isHTTPURL(cfg.MetricsPushURL) {
		return nil, fmt.Errorf("invalid METRICS_PUSH_URL: %q", cfg.MetricsPushURL)
	}

	level, err := logger.ParseLevel(getEnvString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.RateLimitAuth < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_AUTH must be positive: %d", cfg.RateLimitAuth)
	}

	return cfg, nil
}

// UseDatabase はPostgresリポジトリを使う構成かどうかを返す。
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
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
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
