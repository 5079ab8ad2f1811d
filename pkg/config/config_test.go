package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Storage.DataDir == "" {
		t.Error("DataDir not set")
	}
	if cfg.Rejoin.PollInterval <= 0 {
		t.Error("PollInterval not set")
	}
	if cfg.Rejoin.MaxRetries <= 0 {
		t.Error("MaxRetries not set")
	}
	if !cfg.Rejoin.VerifyPresence {
		t.Error("VerifyPresence should default to true")
	}
	if cfg.API.MinRequestInterval <= 0 {
		t.Error("MinRequestInterval not set")
	}
	if cfg.Launcher.Preference == "" {
		t.Error("Launcher preference not set")
	}
	if cfg.Login.Timeout != 300*time.Second {
		t.Errorf("Login timeout = %v, want 300s", cfg.Login.Timeout)
	}
	if cfg.Logging.Level == "" {
		t.Error("Log level not set")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid default config", func(c *Config) {}, nil},
		{"no data dir", func(c *Config) { c.Storage.DataDir = "" }, ErrNoDataDir},
		{"zero poll interval", func(c *Config) { c.Rejoin.PollInterval = 0 }, ErrInvalidPollInterval},
		{"zero max retries", func(c *Config) { c.Rejoin.MaxRetries = 0 }, ErrInvalidMaxRetries},
		{"zero settle delay", func(c *Config) { c.Rejoin.SettleDelay = 0 }, ErrInvalidSettleDelay},
		{"jitter min above max", func(c *Config) {
			c.Rejoin.JitterMin = 10 * time.Second
			c.Rejoin.JitterMax = 5 * time.Second
		}, ErrInvalidJitter},
		{"zero request interval", func(c *Config) { c.API.MinRequestInterval = 0 }, ErrInvalidRequestInterval},
		{"zero request timeout", func(c *Config) { c.API.RequestTimeout = 0 }, ErrInvalidRequestTimeout},
		{"unknown launcher", func(c *Config) { c.Launcher.Preference = "rocketstrap" }, ErrInvalidLauncher},
		{"zero login timeout", func(c *Config) { c.Login.Timeout = 0 }, ErrInvalidLoginTimeout},
		{"too many login sessions", func(c *Config) { c.Login.MaxSessions = 11 }, ErrInvalidLoginSessions},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	content := `
storage:
  data_dir: /tmp/ra-test
rejoin:
  poll_interval: 30s
  max_retries: 3
  verify_presence: true
launcher:
  preference: bloxstrap
logging:
  level: debug
`
	if err := os.WriteFile(configFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := NewLoader(configFile).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/ra-test" {
		t.Errorf("DataDir = %s, want /tmp/ra-test", cfg.Storage.DataDir)
	}
	if cfg.Rejoin.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.Rejoin.PollInterval)
	}
	if cfg.Rejoin.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Rejoin.MaxRetries)
	}
	if cfg.Launcher.Preference != "bloxstrap" {
		t.Errorf("Launcher = %s, want bloxstrap", cfg.Launcher.Preference)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level = %s, want debug", cfg.Logging.Level)
	}

	// Unspecified values fall back to defaults.
	if cfg.Login.Timeout != 300*time.Second {
		t.Errorf("Login timeout = %v, want default 300s", cfg.Login.Timeout)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/config.yaml").Load()
	if err == nil {
		t.Error("Load() with missing explicit file should fail")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("storage: [not a map"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := NewLoader(configFile).LoadFromFile(configFile)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("LoadFromFile() error = %v, want ErrInvalidYAML", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ROBACCOUNTS_DATA_DIR", "/tmp/env-data")
	t.Setenv("ROBACCOUNTS_POLL_INTERVAL", "45s")
	t.Setenv("ROBACCOUNTS_MAX_RETRIES", "7")
	t.Setenv("ROBACCOUNTS_LOG_LEVEL", "warn")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/env-data" {
		t.Errorf("DataDir = %s, want /tmp/env-data", cfg.Storage.DataDir)
	}
	if cfg.Rejoin.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.Rejoin.PollInterval)
	}
	if cfg.Rejoin.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Rejoin.MaxRetries)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Log level = %s, want warn", cfg.Logging.Level)
	}
}
