package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zuxsoft/RobAccounts/pkg/crypto"
)

// encryptedFile is the on-disk shape of an encrypted account store.
type encryptedFile struct {
	Encrypted bool            `json:"encrypted"`
	Data      *crypto.Package `json:"data"`
}

// decodeAccounts parses the plain JSON account map, preserving the key order
// of the file so display order survives restarts.
func decodeAccounts(data []byte) ([]Account, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrCorruptStore)
	}

	var accounts []Account
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		username, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key", ErrCorruptStore)
		}

		var acc Account
		if err := dec.Decode(&acc); err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrCorruptStore, username, err)
		}

		accounts = append(accounts, migrate(username, acc))
	}

	return accounts, nil
}

// migrate backfills fields missing from legacy records. Idempotent: records
// that already carry the fields pass through unchanged.
func migrate(username string, acc Account) Account {
	if acc.Username == "" {
		acc.Username = username
	}
	// Note defaults to empty for records predating the field; nothing to do
	// beyond accepting its zero value.
	return acc
}

// encodeAccounts serializes accounts as a JSON object whose key order is the
// display order.
func encodeAccounts(accounts []Account) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	for i, acc := range accounts {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")

		key, err := json.Marshal(acc.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal username: %w", err)
		}
		buf.Write(key)
		buf.WriteString(": ")

		val, err := json.Marshal(acc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal account %q: %w", acc.Username, err)
		}
		buf.Write(val)
	}

	if len(accounts) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")

	return buf.Bytes(), nil
}

// readStoreFile loads the accounts file, unwrapping the encryption envelope
// when present.
//
// Decryption failures surface as authentication errors from pkg/crypto and
// are never conflated with ErrCorruptStore.
func readStoreFile(path string, enc crypto.Encryptor) ([]Account, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	var envelope encryptedFile
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Encrypted {
		if enc == nil {
			return nil, ErrEncryptedStore
		}
		if envelope.Data == nil {
			return nil, fmt.Errorf("%w: encrypted envelope missing data", ErrCorruptStore)
		}

		plaintext, err := enc.Decrypt(envelope.Data)
		if err != nil {
			return nil, err
		}
		return decodeAccounts(plaintext)
	}

	return decodeAccounts(data)
}

// writeStoreFile persists accounts, wrapping them in an encryption envelope
// when an encryptor is configured. The write is atomic.
func writeStoreFile(path string, accounts []Account, enc crypto.Encryptor) error {
	plaintext, err := encodeAccounts(accounts)
	if err != nil {
		return err
	}

	out := plaintext
	if enc != nil {
		pkg, err := enc.Encrypt(plaintext)
		if err != nil {
			return fmt.Errorf("failed to encrypt accounts: %w", err)
		}

		out, err = json.MarshalIndent(encryptedFile{Encrypted: true, Data: pkg}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal encrypted envelope: %w", err)
		}
	}

	return writeFileAtomic(path, out)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
