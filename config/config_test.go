package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"NAUTUNE_SERVER_URL", "NAUTUNE_USERNAME", "NAUTUNE_PASSWORD",
		"NAUTUNE_DB_PATH", "NAUTUNE_DOWNLOADS_DIR", "NAUTUNE_MAX_DOWNLOADS",
		"NAUTUNE_MAX_STORAGE_MB", "NAUTUNE_OFFLINE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DBPath != DefaultDBPath {
		t.Errorf("Expected default DB path %s, got %s", DefaultDBPath, cfg.DBPath)
	}
	if cfg.MaxDownloads != DefaultConcurrency {
		t.Errorf("Expected default concurrency %d, got %d", DefaultConcurrency, cfg.MaxDownloads)
	}
	if cfg.MaxStorageMB != 0 {
		t.Errorf("Expected storage ceiling disabled by default, got %d", cfg.MaxStorageMB)
	}
	if cfg.OfflineMode {
		t.Error("Expected offline mode off by default")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("Expected info/text logging defaults, got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NAUTUNE_SERVER_URL", "https://jellyfin.example.com")
	t.Setenv("NAUTUNE_MAX_DOWNLOADS", "5")
	t.Setenv("NAUTUNE_MAX_STORAGE_MB", "2048")
	t.Setenv("NAUTUNE_OFFLINE", "true")

	cfg := Load()

	if cfg.ServerURL != "https://jellyfin.example.com" {
		t.Errorf("Unexpected server URL: %s", cfg.ServerURL)
	}
	if cfg.MaxDownloads != 5 {
		t.Errorf("Expected 5 max downloads, got %d", cfg.MaxDownloads)
	}
	if cfg.MaxStorageBytes() != 2048*1024*1024 {
		t.Errorf("Unexpected storage ceiling: %d", cfg.MaxStorageBytes())
	}
	if !cfg.OfflineMode {
		t.Error("Expected offline mode pinned")
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("NAUTUNE_MAX_DOWNLOADS", "lots")
	cfg := Load()
	if cfg.MaxDownloads != DefaultConcurrency {
		t.Errorf("Expected fallback to default concurrency, got %d", cfg.MaxDownloads)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad server url", func(c *Config) { c.ServerURL = "not-a-url" }, "NAUTUNE_SERVER_URL"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "NAUTUNE_DB_PATH"},
		{"empty downloads dir", func(c *Config) { c.DownloadsDir = "" }, "NAUTUNE_DOWNLOADS_DIR"},
		{"zero downloads", func(c *Config) { c.MaxDownloads = 0 }, "NAUTUNE_MAX_DOWNLOADS"},
		{"negative storage", func(c *Config) { c.MaxStorageMB = -1 }, "NAUTUNE_MAX_STORAGE_MB"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ServerURL:    "http://localhost:8096",
				DBPath:       "nautune.db",
				DownloadsDir: "/tmp/nautune",
				MaxDownloads: 2,
				LogLevel:     "info",
				LogFormat:    "text",
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
