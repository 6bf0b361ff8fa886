// Package config loads configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultDBPath        = "nautune.db"
	DefaultConcurrency   = 2
	DefaultHTTPTimeout   = 5 * time.Minute
	DefaultRetryCount    = 3
	DefaultRetryBase     = 1 * time.Second
	DefaultDeviceName    = "nautune"
	DefaultClientVersion = "1.0.0"
)

// Config holds all application configuration
type Config struct {
	ServerURL    string
	Username     string
	Password     string
	DBPath       string
	DownloadsDir string
	MaxDownloads int
	MaxStorageMB int64 // 0 disables the storage ceiling
	OfflineMode  bool  // user-pinned offline mode
	LogLevel     string
	LogFormat    string
}

// Load loads configuration from environment variables with defaults. A .env
// file in the working directory is merged in first, without overriding
// variables already set.
func Load() *Config {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	defaultDownloads := filepath.Join(home, "Music/nautune")

	return &Config{
		ServerURL:    getEnv("NAUTUNE_SERVER_URL", ""),
		Username:     getEnv("NAUTUNE_USERNAME", ""),
		Password:     getEnv("NAUTUNE_PASSWORD", ""),
		DBPath:       getEnv("NAUTUNE_DB_PATH", DefaultDBPath),
		DownloadsDir: getEnv("NAUTUNE_DOWNLOADS_DIR", defaultDownloads),
		MaxDownloads: getEnvInt("NAUTUNE_MAX_DOWNLOADS", DefaultConcurrency),
		MaxStorageMB: int64(getEnvInt("NAUTUNE_MAX_STORAGE_MB", 0)),
		OfflineMode:  getEnvBool("NAUTUNE_OFFLINE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("NAUTUNE_SERVER_URL must be an http(s) URL, got: %s", c.ServerURL))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "NAUTUNE_DB_PATH cannot be empty")
	}

	if c.DownloadsDir == "" {
		errors = append(errors, "NAUTUNE_DOWNLOADS_DIR cannot be empty")
	}

	if c.MaxDownloads < 1 {
		errors = append(errors, fmt.Sprintf("NAUTUNE_MAX_DOWNLOADS must be at least 1, got: %d", c.MaxDownloads))
	}

	if c.MaxStorageMB < 0 {
		errors = append(errors, fmt.Sprintf("NAUTUNE_MAX_STORAGE_MB cannot be negative, got: %d", c.MaxStorageMB))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error, got: %s", c.LogLevel))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be text or json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// MaxStorageBytes returns the storage ceiling in bytes, 0 when disabled.
func (c *Config) MaxStorageBytes() int64 {
	return c.MaxStorageMB * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
