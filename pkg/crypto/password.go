package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// saltSize is the size of the random salt for password-bound keys.
const saltSize = 32

// passwordEncryptor derives its key from a user password and a stored salt.
type passwordEncryptor struct {
	key []byte
}

// NewPassword creates a password-bound encryptor.
//
// The salt must be the 32-byte value persisted in the encryption config;
// it is generated once via GenerateSalt when password encryption is first
// enabled. The password itself is never persisted.
func NewPassword(password string, salt []byte, log logger.Logger) (Encryptor, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if len(salt) != saltSize {
		return nil, ErrInvalidSalt
	}

	key := pbkdf2.Key([]byte(password), salt, kdfIterations, kdfKeyLen, sha256.New)

	log.Debug("password encryptor initialized")

	return &passwordEncryptor{key: key}, nil
}

// Encrypt implements Encryptor.Encrypt.
func (p *passwordEncryptor) Encrypt(plaintext []byte) (*Package, error) {
	return seal(p.key, plaintext)
}

// Decrypt implements Encryptor.Decrypt.
func (p *passwordEncryptor) Decrypt(pkg *Package) ([]byte, error) {
	return open(p.key, pkg)
}

// Method implements Encryptor.Method.
func (p *passwordEncryptor) Method() Method {
	return MethodPassword
}

// GenerateSalt returns a new random 256-bit salt for password encryption.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// VerificationHash returns the hex SHA-256 of a password.
//
// It is stored alongside the salt and used only to reject wrong passwords
// quickly before attempting decryption; the real protection is the
// authentication tag.
func VerificationHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a password against a stored verification hash
// in constant time.
func VerifyPassword(password, storedHash string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(VerificationHash(password)),
		[]byte(storedHash),
	) == 1
}
