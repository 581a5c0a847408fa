package vault

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	rverrors "github.com/calyptra/rv/internal/errors"
)

func TestDeriveKey_Base64MasterKey(t *testing.T) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("Failed to generate key material: %v", err)
	}

	key := DeriveKey(base64.StdEncoding.EncodeToString(raw))
	if !bytes.Equal(key[:], raw) {
		t.Errorf("Expected base64 32-byte input to be used directly")
	}
}

func TestDeriveKey_Passphrase(t *testing.T) {
	a := DeriveKey("correct horse battery staple")
	b := DeriveKey("correct horse battery staple")
	if a != b {
		t.Errorf("Expected derivation to be deterministic")
	}

	c := DeriveKey("a different passphrase")
	if a == c {
		t.Errorf("Expected different passphrases to derive different keys")
	}
}

func TestDeriveKey_ShortBase64IsHashed(t *testing.T) {
	// Valid base64 but not 32 bytes: must go through the hash path.
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	key := DeriveKey(short)
	var zero [KeySize]byte
	if key == zero {
		t.Errorf("Expected non-zero derived key")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveKey("test passphrase")

	for _, plaintext := range []string{"", "x", "sk-test-1234", "multi\nline\nvalue"} {
		ciphertext, nonce, err := Encrypt([]byte(plaintext), key)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		got, err := Decrypt(ciphertext, nonce, key)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if string(got) != plaintext {
			t.Errorf("Round trip mismatch: expected %q, got %q", plaintext, got)
		}
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	key := DeriveKey("test passphrase")

	_, nonce1, err := Encrypt([]byte("same value"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	_, nonce2, err := Encrypt([]byte("same value"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(nonce1, nonce2) {
		t.Errorf("Expected a fresh nonce per call")
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := DeriveKey("test passphrase")
	ciphertext, nonce, err := Encrypt([]byte("sensitive"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flip one bit in every ciphertext position; all must fail closed.
	for i := range ciphertext {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[i] ^= 0x01

		if _, err := Decrypt(tampered, nonce, key); !errors.Is(err, rverrors.ErrAuthentication) {
			t.Fatalf("Expected ErrAuthentication for flipped byte %d, got: %v", i, err)
		}
	}
}

func TestDecrypt_TamperedNonce(t *testing.T) {
	key := DeriveKey("test passphrase")
	ciphertext, nonce, err := Encrypt([]byte("sensitive"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tampered := make([]byte, len(nonce))
	copy(tampered, nonce)
	tampered[0] ^= 0x01

	if _, err := Decrypt(ciphertext, tampered, key); !errors.Is(err, rverrors.ErrAuthentication) {
		t.Errorf("Expected ErrAuthentication for tampered nonce, got: %v", err)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := DeriveKey("test passphrase")
	other := DeriveKey("not the passphrase")

	ciphertext, nonce, err := Encrypt([]byte("sensitive"), key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(ciphertext, nonce, other); !errors.Is(err, rverrors.ErrAuthentication) {
		t.Errorf("Expected ErrAuthentication for wrong key, got: %v", err)
	}
}
