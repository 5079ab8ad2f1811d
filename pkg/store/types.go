// Package store implements the encrypted account repository.
//
// Accounts live in a single JSON file, either plain or wrapped in one
// authenticated-encryption package covering the whole serialized map.
// All repository operations hold a single coarse lock and persist a full
// snapshot after every mutation, so concurrent readers (presence monitors)
// and writers (CLI commands) never observe partial state.
package store

import (
	"time"
)

// DateFormat is the timestamp layout used for Account.AddedDate,
// kept compatible with existing account files.
const DateFormat = "2006-01-02 15:04:05"

// Account is one stored Roblox account.
type Account struct {
	// Username is the unique key for the account.
	Username string `json:"username"`

	// SessionToken is the .ROBLOSECURITY cookie value. Secret.
	SessionToken string `json:"cookie"`

	// UserID is the numeric Roblox user id, 0 when unknown.
	UserID int64 `json:"user_id,omitempty"`

	// Password is the captured login password, empty when not captured. Secret.
	Password string `json:"password,omitempty"`

	// AddedDate records when the account was stored, in DateFormat.
	AddedDate string `json:"added_date"`

	// Note is a free-form user note.
	Note string `json:"note"`
}

// Repository manages the stored account map.
//
// Implementations are safe for concurrent use; every method acquires the
// repository lock.
type Repository interface {
	// Add upserts an account. Re-adding an existing username overwrites the
	// stored session token and password: a fresh login naturally refreshes
	// the account.
	Add(account Account) error

	// Delete removes an account. Returns ErrAccountNotFound if absent.
	Delete(username string) error

	// Get returns a copy of the stored account.
	Get(username string) (Account, error)

	// List returns all accounts in display order.
	List() []Account

	// Usernames returns the stored usernames in display order.
	Usernames() []string

	// SessionToken returns the session token for an account.
	SessionToken(username string) (string, error)

	// SetNote updates the note for an account.
	SetNote(username, note string) error

	// Note returns the note for an account.
	Note(username string) (string, error)

	// Reorder rewrites the display order. The list must contain exactly the
	// stored usernames.
	Reorder(usernames []string) error

	// Len returns the number of stored accounts.
	Len() int

	// Reload re-reads the accounts file, replacing in-memory state. Used when
	// the file changed externally.
	Reload() error

	// Wipe removes every account and persists the empty store.
	Wipe() error

	// SwitchEncryption re-encrypts the store under a new strategy and
	// returns a fresh Repository bound to it. The receiver must not be
	// used afterwards.
	SwitchEncryption(cfg EncryptionConfig, password string) (Repository, error)
}

// now is stubbed in tests.
var now = time.Now
