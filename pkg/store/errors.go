package store

import "errors"

var (
	// ErrAccountNotFound is returned when an operation references a username
	// that is not in the store.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmptyUsername is returned when an account is added without a username.
	ErrEmptyUsername = errors.New("username must not be empty")

	// ErrEmptyToken is returned when an account is added without a session token.
	ErrEmptyToken = errors.New("session token must not be empty")

	// ErrCorruptStore is returned when the accounts file is not valid JSON.
	// Distinct from decryption failures: the file was readable but unparseable.
	ErrCorruptStore = errors.New("accounts file is corrupt")

	// ErrConfigIncomplete is returned when the encryption config declares the
	// password method but is missing its salt or verification hash. Loading
	// fails closed instead of silently operating unencrypted.
	ErrConfigIncomplete = errors.New("encryption config incomplete: missing salt or password hash")

	// ErrUnknownMethod is returned when the encryption config names a method
	// that is not hardware or password.
	ErrUnknownMethod = errors.New("unknown encryption method")

	// ErrPasswordRequired is returned when the store is password-encrypted
	// and no password was supplied.
	ErrPasswordRequired = errors.New("password required for password-based encryption")

	// ErrWrongPassword is returned when the supplied password does not match
	// the stored verification hash.
	ErrWrongPassword = errors.New("wrong password")

	// ErrEncryptedStore is returned when the accounts file is encrypted but
	// no encryption is configured, so no key is available.
	ErrEncryptedStore = errors.New("accounts file is encrypted but encryption is not configured")

	// ErrReorderMismatch is returned when a reorder does not name exactly the
	// stored usernames.
	ErrReorderMismatch = errors.New("reorder list does not match stored accounts")
)
