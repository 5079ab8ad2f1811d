package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/robaccounts/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// If a file was explicitly specified, failing to load it is fatal.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Storage.DataDir != "" {
		result.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.AccountsFile != "" {
		result.Storage.AccountsFile = override.Storage.AccountsFile
	}
	if override.Storage.EncryptionConfigFile != "" {
		result.Storage.EncryptionConfigFile = override.Storage.EncryptionConfigFile
	}
	if override.Storage.CacheFile != "" {
		result.Storage.CacheFile = override.Storage.CacheFile
	}

	if override.Rejoin.PollInterval > 0 {
		result.Rejoin.PollInterval = override.Rejoin.PollInterval
	}
	if override.Rejoin.MaxRetries > 0 {
		result.Rejoin.MaxRetries = override.Rejoin.MaxRetries
	}
	if override.Rejoin.SettleDelay > 0 {
		result.Rejoin.SettleDelay = override.Rejoin.SettleDelay
	}
	if override.Rejoin.JitterMin > 0 {
		result.Rejoin.JitterMin = override.Rejoin.JitterMin
	}
	if override.Rejoin.JitterMax > 0 {
		result.Rejoin.JitterMax = override.Rejoin.JitterMax
	}
	// VerifyPresence is a bool, so we always take the override value.
	result.Rejoin.VerifyPresence = override.Rejoin.VerifyPresence

	if override.API.MinRequestInterval > 0 {
		result.API.MinRequestInterval = override.API.MinRequestInterval
	}
	if override.API.RequestTimeout > 0 {
		result.API.RequestTimeout = override.API.RequestTimeout
	}

	if override.Launcher.Preference != "" {
		result.Launcher.Preference = override.Launcher.Preference
	}
	if override.Launcher.LogsDir != "" {
		result.Launcher.LogsDir = override.Launcher.LogsDir
	}
	if override.Launcher.SettleDelay > 0 {
		result.Launcher.SettleDelay = override.Launcher.SettleDelay
	}

	if override.Login.Timeout > 0 {
		result.Login.Timeout = override.Login.Timeout
	}
	if override.Login.MaxSessions > 0 {
		result.Login.MaxSessions = override.Login.MaxSessions
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - ROBACCOUNTS_DATA_DIR: data directory path
//   - ROBACCOUNTS_LAUNCHER: launcher preference
//   - ROBACCOUNTS_POLL_INTERVAL: rejoin poll interval (Go duration string)
//   - ROBACCOUNTS_MAX_RETRIES: rejoin retry ceiling
//   - ROBACCOUNTS_LOG_LEVEL: log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if dataDir := os.Getenv("ROBACCOUNTS_DATA_DIR"); dataDir != "" {
		result.Storage.DataDir = dataDir
	}

	if launcher := os.Getenv("ROBACCOUNTS_LAUNCHER"); launcher != "" {
		result.Launcher.Preference = launcher
	}

	if interval := os.Getenv("ROBACCOUNTS_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			result.Rejoin.PollInterval = d
		}
	}

	if retries := os.Getenv("ROBACCOUNTS_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n > 0 {
			result.Rejoin.MaxRetries = n
		}
	}

	if level := os.Getenv("ROBACCOUNTS_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}

	return &result
}
