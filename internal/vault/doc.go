// Package vault implements the encrypted secret store and its crypto
// primitives.
//
// Secrets are sealed with nacl/secretbox under a key derived from a local
// master key file (or an explicit passphrase). The backing table lives in
// a single sqlite file with owner-only permissions; each row holds the
// ciphertext, its nonce, and plaintext metadata (tags, timestamps).
package vault
