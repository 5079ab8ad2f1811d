package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const gcmTagSize = 16

// seal encrypts plaintext under key with a fresh random nonce and splits the
// GCM output into ciphertext and authentication tag for the wire format.
func seal(key, plaintext []byte) (*Package, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	// gcm.Seal appends the tag to the ciphertext; the stored package keeps
	// them separate.
	return &Package{
		Nonce:      nonce,
		Tag:        sealed[len(sealed)-gcmTagSize:],
		Ciphertext: sealed[:len(sealed)-gcmTagSize],
	}, nil
}

// open verifies and decrypts a package under key.
func open(key []byte, pkg *Package) ([]byte, error) {
	if pkg == nil {
		return nil, ErrMalformedPackage
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(pkg.Nonce) != gcm.NonceSize() || len(pkg.Tag) != gcmTagSize {
		return nil, ErrMalformedPackage
	}

	sealed := make([]byte, 0, len(pkg.Ciphertext)+len(pkg.Tag))
	sealed = append(sealed, pkg.Ciphertext...)
	sealed = append(sealed, pkg.Tag...)

	plaintext, err := gcm.Open(nil, pkg.Nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return plaintext, nil
}
