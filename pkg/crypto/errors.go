package crypto

import "errors"

var (
	// ErrDecryptFailed is returned when authentication-tag verification fails.
	// This indicates a wrong password, a different machine, or tampered data,
	// never a corrupt-but-readable store.
	ErrDecryptFailed = errors.New("decryption failed: authentication tag mismatch")

	// ErrMalformedPackage is returned when an encrypted package is structurally
	// invalid (bad base64, missing fields, truncated nonce).
	ErrMalformedPackage = errors.New("malformed encrypted package")

	// ErrEmptyPassword is returned when a password-bound encryptor is created
	// with an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrInvalidSalt is returned when a password-bound encryptor is created
	// with a salt of the wrong size.
	ErrInvalidSalt = errors.New("salt must be 32 bytes")
)
