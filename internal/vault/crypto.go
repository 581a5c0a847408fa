package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	rverrors "github.com/calyptra/rv/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the symmetric key length required by secretbox.
	KeySize = 32

	// NonceSize is the nonce length required by secretbox.
	NonceSize = 24
)

// DeriveKey turns a passphrase into a 32-byte symmetric key. If the
// passphrase base64-decodes to exactly 32 bytes (the master key file
// format), it is used directly; anything else is hashed.
func DeriveKey(secret string) [KeySize]byte {
	var key [KeySize]byte
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == KeySize {
		copy(key[:], raw)
		return key
	}
	sum := sha256.Sum256([]byte(secret))
	copy(key[:], sum[:])
	return key
}

// Encrypt seals plaintext with a fresh random nonce. Callers never supply
// nonces: reusing one with the same key would break the cipher.
func Encrypt(plaintext []byte, key [KeySize]byte) (ciphertext, nonce []byte, err error) {
	var n [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nil, plaintext, &n, &key), n[:], nil
}

// Decrypt opens ciphertext sealed by Encrypt. A failed authentication tag
// returns ErrAuthentication; it must abort the caller, never be treated as
// an empty secret.
func Decrypt(ciphertext, nonce []byte, key [KeySize]byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: bad nonce length %d", rverrors.ErrAuthentication, len(nonce))
	}
	var n [NonceSize]byte
	copy(n[:], nonce)
	plaintext, ok := secretbox.Open(nil, ciphertext, &n, &key)
	if !ok {
		return nil, rverrors.ErrAuthentication
	}
	return plaintext, nil
}

// NewMasterKey generates 32 random bytes for use as a master key.
func NewMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}
