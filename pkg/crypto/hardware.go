package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// Key derivation parameters shared by both strategies.
const (
	kdfIterations = 100000
	kdfKeyLen     = 32
)

// appSalt is the static application salt for machine-bound key derivation.
// Changing it invalidates every existing hardware-encrypted store.
var appSalt = []byte("roblox_account_manager_salt_v1")

// hardwareEncryptor derives its key from machine-specific identifiers.
type hardwareEncryptor struct {
	key []byte
}

// NewHardware creates a machine-bound encryptor.
//
// The key is deterministic for a given machine: a SHA-256 fingerprint of
// platform identifiers stretched through PBKDF2 with a static application
// salt. Decrypting on a different machine fails with ErrDecryptFailed.
func NewHardware(log logger.Logger) Encryptor {
	fingerprint := machineFingerprint()
	key := pbkdf2.Key([]byte(fingerprint), appSalt, kdfIterations, kdfKeyLen, sha256.New)

	log.Debug("hardware encryptor initialized", "fingerprint_prefix", fingerprint[:8])

	return &hardwareEncryptor{key: key}
}

// Encrypt implements Encryptor.Encrypt.
func (h *hardwareEncryptor) Encrypt(plaintext []byte) (*Package, error) {
	return seal(h.key, plaintext)
}

// Decrypt implements Encryptor.Decrypt.
func (h *hardwareEncryptor) Decrypt(pkg *Package) ([]byte, error) {
	plaintext, err := open(h.key, pkg)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Method implements Encryptor.Method.
func (h *hardwareEncryptor) Method() Method {
	return MethodHardware
}

// machineFingerprint builds a stable identifier for this machine from
// whatever platform identifiers are available, hashed so individual
// identifiers are not recoverable from the config.
func machineFingerprint() string {
	identifiers := make([]string, 0, 4)

	// /etc/machine-id is the most stable identifier on Linux; on other
	// platforms the hostname plus uid has to do.
	if data, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			identifiers = append(identifiers, id)
		}
	}

	if hostname, err := os.Hostname(); err == nil {
		identifiers = append(identifiers, hostname)
	}

	identifiers = append(identifiers,
		fmt.Sprintf("%d", os.Getuid()),
		runtime.GOOS+"/"+runtime.GOARCH,
	)

	sum := sha256.Sum256([]byte(strings.Join(identifiers, "-")))
	return hex.EncodeToString(sum[:])
}
