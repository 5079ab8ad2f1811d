package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/zuxsoft/RobAccounts/pkg/crypto"
)

// EncryptionConfig is the persisted encryption configuration.
type EncryptionConfig struct {
	// Enabled reports whether the account store is encrypted at rest.
	Enabled bool `json:"encryption_enabled"`

	// Method is the active strategy, empty when encryption is disabled.
	Method crypto.Method `json:"encryption_method,omitempty"`

	// Salt is the base64 random salt, password method only.
	Salt string `json:"salt,omitempty"`

	// PasswordHash is the hex SHA-256 verification hash, password method only.
	PasswordHash string `json:"password_hash,omitempty"`

	// SetupCompleted distinguishes "user chose no encryption" from
	// "first run, never asked".
	SetupCompleted bool `json:"setup_completed"`
}

// Validate checks the configuration invariants.
//
// A config declaring the password method without its salt and verification
// hash fails closed: the caller must refuse to proceed rather than silently
// operate unencrypted.
func (c *EncryptionConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Method {
	case crypto.MethodHardware:
		return nil
	case crypto.MethodPassword:
		if c.Salt == "" || c.PasswordHash == "" {
			return ErrConfigIncomplete
		}
		if _, err := base64.StdEncoding.DecodeString(c.Salt); err != nil {
			return fmt.Errorf("%w: invalid salt encoding", ErrConfigIncomplete)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
}

// SaltBytes decodes the stored salt.
func (c *EncryptionConfig) SaltBytes() ([]byte, error) {
	if c.Salt == "" {
		return nil, ErrConfigIncomplete
	}
	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt encoding", ErrConfigIncomplete)
	}
	return salt, nil
}

// HardwareConfig returns a config enabling machine-bound encryption.
func HardwareConfig() EncryptionConfig {
	return EncryptionConfig{
		Enabled:        true,
		Method:         crypto.MethodHardware,
		SetupCompleted: true,
	}
}

// PasswordConfig returns a config enabling password encryption with a fresh
// salt, along with the derived encryptor.
func PasswordConfig(password string) (EncryptionConfig, error) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return EncryptionConfig{}, err
	}

	return EncryptionConfig{
		Enabled:        true,
		Method:         crypto.MethodPassword,
		Salt:           base64.StdEncoding.EncodeToString(salt),
		PasswordHash:   crypto.VerificationHash(password),
		SetupCompleted: true,
	}, nil
}

// DisabledConfig returns a config with encryption switched off but setup
// recorded as complete.
func DisabledConfig() EncryptionConfig {
	return EncryptionConfig{
		Enabled:        false,
		SetupCompleted: true,
	}
}

// LoadEncryptionConfig reads the encryption config file.
//
// A missing file yields the zero config (setup not completed), which is not
// an error; an unreadable or invalid file is.
func LoadEncryptionConfig(path string) (EncryptionConfig, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return EncryptionConfig{}, nil
		}
		return EncryptionConfig{}, fmt.Errorf("failed to read encryption config: %w", err)
	}

	var cfg EncryptionConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return EncryptionConfig{}, fmt.Errorf("failed to parse encryption config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return EncryptionConfig{}, err
	}

	return cfg, nil
}

// SaveEncryptionConfig writes the encryption config atomically
// (temp file then rename).
func SaveEncryptionConfig(path string, cfg EncryptionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encryption config: %w", err)
	}

	return writeFileAtomic(path, data)
}
