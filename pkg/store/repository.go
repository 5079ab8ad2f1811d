package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/zuxsoft/RobAccounts/pkg/crypto"
	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// Options configures Open.
type Options struct {
	// DataDir is the directory holding the store files.
	DataDir string

	// AccountsFile is the accounts file name inside DataDir.
	AccountsFile string

	// EncryptionConfigFile is the encryption config file name inside DataDir.
	EncryptionConfigFile string

	// Password unlocks a password-encrypted store. Ignored otherwise.
	Password string

	// Logger for repository diagnostics.
	Logger logger.Logger
}

// repository implements Repository with a single coarse lock.
type repository struct {
	accountsPath string
	encCfgPath   string
	logger       logger.Logger

	mu        sync.RWMutex
	encryptor crypto.Encryptor
	encCfg    EncryptionConfig
	accounts  map[string]Account
	order     []string
}

// Open loads the account store from disk.
//
// The encryption config selects the strategy: a password-encrypted store
// rejects a missing password with ErrPasswordRequired and a wrong one with
// ErrWrongPassword (checked against the verification hash before any
// decryption is attempted). A config declaring the password method without
// salt or hash fails closed with ErrConfigIncomplete.
func Open(opts Options) (Repository, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.AccountsFile == "" {
		opts.AccountsFile = "saved_accounts.json"
	}
	if opts.EncryptionConfigFile == "" {
		opts.EncryptionConfigFile = "encryption_config.json"
	}

	encCfgPath := filepath.Join(opts.DataDir, opts.EncryptionConfigFile)
	encCfg, err := LoadEncryptionConfig(encCfgPath)
	if err != nil {
		return nil, err
	}

	encryptor, err := encryptorFor(encCfg, opts.Password, opts.Logger)
	if err != nil {
		return nil, err
	}

	r := &repository{
		accountsPath: filepath.Join(opts.DataDir, opts.AccountsFile),
		encCfgPath:   encCfgPath,
		logger:       opts.Logger,
		encryptor:    encryptor,
		encCfg:       encCfg,
		accounts:     make(map[string]Account),
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	opts.Logger.Info("account store opened",
		"path", r.accountsPath,
		"accounts", len(r.order),
		"encrypted", encryptor != nil)

	return r, nil
}

// encryptorFor builds the encryptor matching an encryption config.
func encryptorFor(cfg EncryptionConfig, password string, log logger.Logger) (crypto.Encryptor, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Method {
	case crypto.MethodHardware:
		return crypto.NewHardware(log), nil

	case crypto.MethodPassword:
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if !crypto.VerifyPassword(password, cfg.PasswordHash) {
			return nil, ErrWrongPassword
		}

		salt, err := cfg.SaltBytes()
		if err != nil {
			return nil, err
		}
		return crypto.NewPassword(password, salt, log)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
}

// load reads the accounts file into memory. Caller need not hold the lock
// during Open; Reload acquires it.
func (r *repository) load() error {
	accounts, err := readStoreFile(r.accountsPath, r.encryptor)
	if err != nil {
		return err
	}

	r.accounts = make(map[string]Account, len(accounts))
	r.order = r.order[:0]
	for _, acc := range accounts {
		if _, dup := r.accounts[acc.Username]; !dup {
			r.order = append(r.order, acc.Username)
		}
		r.accounts[acc.Username] = acc
	}

	return nil
}

// persist writes the full account snapshot. Caller must hold the lock.
func (r *repository) persist() error {
	accounts := make([]Account, 0, len(r.order))
	for _, username := range r.order {
		accounts = append(accounts, r.accounts[username])
	}

	return writeStoreFile(r.accountsPath, accounts, r.encryptor)
}

// Add implements Repository.Add.
func (r *repository) Add(account Account) error {
	if account.Username == "" {
		return ErrEmptyUsername
	}
	if account.SessionToken == "" {
		return ErrEmptyToken
	}

	if account.AddedDate == "" {
		account.AddedDate = now().Format(DateFormat)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.accounts[account.Username]
	if !exists {
		r.order = append(r.order, account.Username)
	}
	r.accounts[account.Username] = account

	if err := r.persist(); err != nil {
		return err
	}

	if exists {
		r.logger.Info("account refreshed", "username", account.Username)
	} else {
		r.logger.Info("account added", "username", account.Username)
	}

	return nil
}

// Delete implements Repository.Delete.
func (r *repository) Delete(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[username]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}

	delete(r.accounts, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if err := r.persist(); err != nil {
		return err
	}

	r.logger.Info("account deleted", "username", username)
	return nil
}

// Get implements Repository.Get.
func (r *repository) Get(username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[username]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	return acc, nil
}

// List implements Repository.List.
func (r *repository) List() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, 0, len(r.order))
	for _, username := range r.order {
		accounts = append(accounts, r.accounts[username])
	}
	return accounts
}

// Usernames implements Repository.Usernames.
func (r *repository) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// SessionToken implements Repository.SessionToken.
func (r *repository) SessionToken(username string) (string, error) {
	acc, err := r.Get(username)
	if err != nil {
		return "", err
	}
	return acc.SessionToken, nil
}

// SetNote implements Repository.SetNote.
func (r *repository) SetNote(username, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}

	acc.Note = note
	r.accounts[username] = acc

	if err := r.persist(); err != nil {
		return err
	}

	r.logger.Info("note updated", "username", username)
	return nil
}

// Note implements Repository.Note.
func (r *repository) Note(username string) (string, error) {
	acc, err := r.Get(username)
	if err != nil {
		return "", err
	}
	return acc.Note, nil
}

// Reorder implements Repository.Reorder.
func (r *repository) Reorder(usernames []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(usernames) != len(r.order) {
		return ErrReorderMismatch
	}
	seen := make(map[string]bool, len(usernames))
	for _, username := range usernames {
		if _, ok := r.accounts[username]; !ok || seen[username] {
			return ErrReorderMismatch
		}
		seen[username] = true
	}

	r.order = append(r.order[:0], usernames...)
	return r.persist()
}

// Len implements Repository.Len.
func (r *repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Reload implements Repository.Reload.
func (r *repository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Wipe implements Repository.Wipe.
func (r *repository) Wipe() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = make(map[string]Account)
	r.order = nil

	if err := r.persist(); err != nil {
		return err
	}

	r.logger.Info("account store wiped")
	return nil
}

// SwitchEncryption re-encrypts the store under a new strategy.
//
// The full account map is decrypted in memory already; it is re-persisted
// under the new encryptor and then the encryption config is rewritten, each
// write atomic. Returns a fresh Repository bound to the new strategy; the
// receiver must not be used afterwards (callers swap the active instance).
func (r *repository) SwitchEncryption(cfg EncryptionConfig, password string) (Repository, error) {
	newEnc, err := encryptorFor(cfg, password, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]Account, 0, len(r.order))
	for _, username := range r.order {
		accounts = append(accounts, r.accounts[username])
	}

	// Data first, config second: if interrupted between the two writes the
	// store fails closed on next load instead of silently mixing methods.
	if err := writeStoreFile(r.accountsPath, accounts, newEnc); err != nil {
		return nil, err
	}
	if err := SaveEncryptionConfig(r.encCfgPath, cfg); err != nil {
		return nil, err
	}

	next := &repository{
		accountsPath: r.accountsPath,
		encCfgPath:   r.encCfgPath,
		logger:       r.logger,
		encryptor:    newEnc,
		encCfg:       cfg,
		accounts:     make(map[string]Account, len(accounts)),
		order:        append([]string(nil), r.order...),
	}
	for _, acc := range accounts {
		next.accounts[acc.Username] = acc
	}

	r.logger.Info("encryption method switched", "method", string(cfg.Method), "enabled", cfg.Enabled)
	return next, nil
}
