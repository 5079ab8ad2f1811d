// Package config provides configuration management for robaccounts.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.NewLoader("").Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Data dir: %s\n", cfg.Storage.DataDir)
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Storage.DataDir must be non-empty
// - Rejoin.PollInterval, SettleDelay and JitterMax must be > 0
// - Rejoin.MaxRetries must be > 0
// - API.MinRequestInterval and RequestTimeout must be > 0
// - Login.Timeout must be > 0, MaxSessions in [1, 10].
type Config struct {
	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Rejoin defaults applied to accounts without explicit overrides
	Rejoin RejoinConfig `yaml:"rejoin"`

	// API settings for the Roblox web endpoints
	API APIConfig `yaml:"api"`

	// Launcher settings
	Launcher LauncherConfig `yaml:"launcher"`

	// Login capture settings
	Login LoginConfig `yaml:"login"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig contains file layout settings.
type StorageConfig struct {
	// Directory holding the account store, encryption config and caches
	DataDir string `yaml:"data_dir"`

	// Accounts file name inside DataDir
	AccountsFile string `yaml:"accounts_file"`

	// Encryption config file name inside DataDir
	EncryptionConfigFile string `yaml:"encryption_config_file"`

	// BoltDB cache file name inside DataDir
	CacheFile string `yaml:"cache_file"`
}

// RejoinConfig contains default auto-rejoin settings.
type RejoinConfig struct {
	// Interval between presence polls
	PollInterval time.Duration `yaml:"poll_interval"`

	// Relaunch attempts before a monitor gives up
	MaxRetries int `yaml:"max_retries"`

	// Wait after a successful relaunch before polling resumes
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Random startup delay bounds, spreads API calls when many
	// monitors start together
	JitterMin time.Duration `yaml:"jitter_min"`
	JitterMax time.Duration `yaml:"jitter_max"`

	// Require the reported place id to match the target
	VerifyPresence bool `yaml:"verify_presence"`
}

// APIConfig contains settings for the Roblox web API client.
type APIConfig struct {
	// Minimum interval between rate-limited API calls
	MinRequestInterval time.Duration `yaml:"min_request_interval"`

	// Per-request timeout
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LauncherConfig contains game client launch settings.
type LauncherConfig struct {
	// Preferred launcher (default, bloxstrap, fishstrap, client)
	Preference string `yaml:"preference"`

	// Roblox client log directory, used for process attribution.
	// Empty means the platform default.
	LogsDir string `yaml:"logs_dir"`

	// Wait after a launch call before diffing process ids
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// LoginConfig contains interactive login capture settings.
type LoginConfig struct {
	// Overall timeout for one capture session
	Timeout time.Duration `yaml:"timeout"`

	// Maximum concurrent capture sessions
	MaxSessions int `yaml:"max_sessions"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: this method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return ErrNoDataDir
	}

	if c.Rejoin.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.Rejoin.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.Rejoin.SettleDelay <= 0 {
		return ErrInvalidSettleDelay
	}
	if c.Rejoin.JitterMax <= 0 || c.Rejoin.JitterMin < 0 || c.Rejoin.JitterMin > c.Rejoin.JitterMax {
		return ErrInvalidJitter
	}

	if c.API.MinRequestInterval <= 0 {
		return ErrInvalidRequestInterval
	}
	if c.API.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	validLaunchers := map[string]bool{
		"default":   true,
		"bloxstrap": true,
		"fishstrap": true,
		"client":    true,
	}
	if !validLaunchers[c.Launcher.Preference] {
		return ErrInvalidLauncher
	}
	if c.Launcher.SettleDelay <= 0 {
		return ErrInvalidSettleDelay
	}

	if c.Login.Timeout <= 0 {
		return ErrInvalidLoginTimeout
	}
	if c.Login.MaxSessions <= 0 || c.Login.MaxSessions > 10 {
		return ErrInvalidLoginSessions
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:              defaultDataDir(),
			AccountsFile:         "saved_accounts.json",
			EncryptionConfigFile: "encryption_config.json",
			CacheFile:            "cache.db",
		},
		Rejoin: RejoinConfig{
			PollInterval:   10 * time.Second,
			MaxRetries:     5,
			SettleDelay:    10 * time.Second,
			JitterMin:      6 * time.Second,
			JitterMax:      9 * time.Second,
			VerifyPresence: true,
		},
		API: APIConfig{
			MinRequestInterval: 6 * time.Second,
			RequestTimeout:     5 * time.Second,
		},
		Launcher: LauncherConfig{
			Preference:  "default",
			LogsDir:     "",
			SettleDelay: 5 * time.Second,
		},
		Login: LoginConfig{
			Timeout:     300 * time.Second,
			MaxSessions: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
