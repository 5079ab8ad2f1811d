package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoDataDir is returned when no data directory is specified.
	ErrNoDataDir = errors.New("no data directory specified")

	// ErrInvalidPollInterval is returned when the poll interval is <= 0.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be > 0")

	// ErrInvalidMaxRetries is returned when max retries is <= 0.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be > 0")

	// ErrInvalidSettleDelay is returned when a settle delay is <= 0.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be > 0")

	// ErrInvalidJitter is returned when the jitter bounds are inconsistent.
	ErrInvalidJitter = errors.New("invalid jitter bounds: need 0 <= min <= max, max > 0")

	// ErrInvalidRequestInterval is returned when the API rate-limit interval is <= 0.
	ErrInvalidRequestInterval = errors.New("invalid min request interval: must be > 0")

	// ErrInvalidRequestTimeout is returned when the API request timeout is <= 0.
	ErrInvalidRequestTimeout = errors.New("invalid request timeout: must be > 0")

	// ErrInvalidLauncher is returned when the launcher preference is not recognized.
	ErrInvalidLauncher = errors.New("invalid launcher: must be default, bloxstrap, fishstrap, or client")

	// ErrInvalidLoginTimeout is returned when the login capture timeout is <= 0.
	ErrInvalidLoginTimeout = errors.New("invalid login timeout: must be > 0")

	// ErrInvalidLoginSessions is returned when login max sessions is out of range.
	ErrInvalidLoginSessions = errors.New("invalid login max sessions: must be 1-10")

	// ErrInvalidLogLevel is returned when the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when the log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
