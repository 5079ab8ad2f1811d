// Package crypto provides the authenticated-encryption strategies protecting
// the account store at rest.
//
// Two interchangeable strategies are available: a machine-bound key derived
// from hardware identifiers, and a password-bound key derived from a user
// password plus a persisted random salt. Both wrap the serialized account map
// in a single AES-256-GCM package with a fresh nonce per encryption.
package crypto

import (
	"encoding/base64"
	"encoding/json"
)

// Method identifies an encryption strategy.
type Method string

const (
	// MethodHardware derives the key from machine-specific identifiers.
	// Data encrypted this way cannot be decrypted on another machine.
	MethodHardware Method = "hardware"

	// MethodPassword derives the key from a user password and a stored salt.
	MethodPassword Method = "password"
)

// Package is one authenticated-encryption unit wrapping the entire
// serialized account map.
type Package struct {
	// Nonce is the random GCM nonce generated for this package.
	Nonce []byte

	// Tag is the GCM authentication tag. Decryption verifies it before
	// trusting any plaintext.
	Tag []byte

	// Ciphertext is the encrypted payload, tag excluded.
	Ciphertext []byte
}

// packageJSON is the on-disk shape of a Package.
type packageJSON struct {
	Nonce      string `json:"nonce"`
	Tag        string `json:"authentication_tag"`
	Ciphertext string `json:"ciphertext"`
}

// MarshalJSON implements json.Marshaler using base64-encoded fields.
func (p *Package) MarshalJSON() ([]byte, error) {
	return json.Marshal(packageJSON{
		Nonce:      base64.StdEncoding.EncodeToString(p.Nonce),
		Tag:        base64.StdEncoding.EncodeToString(p.Tag),
		Ciphertext: base64.StdEncoding.EncodeToString(p.Ciphertext),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Package) UnmarshalJSON(data []byte) error {
	var raw packageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if p.Nonce, err = base64.StdEncoding.DecodeString(raw.Nonce); err != nil {
		return ErrMalformedPackage
	}
	if p.Tag, err = base64.StdEncoding.DecodeString(raw.Tag); err != nil {
		return ErrMalformedPackage
	}
	if p.Ciphertext, err = base64.StdEncoding.DecodeString(raw.Ciphertext); err != nil {
		return ErrMalformedPackage
	}
	return nil
}

// Encryptor is an authenticated-encryption strategy for the account store.
//
// Implementations must generate a fresh random nonce for every Encrypt call
// and must never return unverified plaintext from Decrypt.
type Encryptor interface {
	// Encrypt seals plaintext into a Package.
	Encrypt(plaintext []byte) (*Package, error)

	// Decrypt opens a Package, verifying the authentication tag first.
	// Tag mismatch (wrong key, wrong machine, or tampering) returns an
	// error wrapping ErrDecryptFailed.
	Decrypt(pkg *Package) ([]byte, error)

	// Method reports which strategy this encryptor implements.
	Method() Method
}
