package errors

import (
	"errors"
	"fmt"
)

// Store errors indicate problems with the vault lifecycle or its backing file.
var (
	// ErrNotUnlocked indicates a store operation was attempted before unlock.
	ErrNotUnlocked = errors.New("store is not unlocked")

	// ErrStoreNotInitialized indicates the backing store file does not exist yet.
	ErrStoreNotInitialized = errors.New("secret store has not been initialized")

	// ErrStoreCorrupted indicates the backing store file is unreadable or malformed.
	ErrStoreCorrupted = errors.New("secret store is corrupted")

	// ErrNoPassphrase indicates no passphrase was available in the environment
	// and no master key file exists.
	ErrNoPassphrase = errors.New("no passphrase available")
)

// Cryptographic errors are always fatal and never downgraded to "no secret".
var (
	// ErrAuthentication indicates ciphertext failed to authenticate: either the
	// wrong key was used or the data was tampered with.
	ErrAuthentication = errors.New("decryption failed: wrong key or tampered data")
)

// Resolution errors.
var (
	// ErrSecretNotFound indicates a requested vault key does not exist.
	// This is the only error class that allows execution to continue.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrApprovalRequired indicates the project has not been approved for
	// secret injection.
	ErrApprovalRequired = errors.New("project is not approved for secret injection")
)

// Executor errors.
var (
	// ErrSpawnFailed indicates the target command could not be started.
	ErrSpawnFailed = errors.New("failed to start command")
)

// ConfigValidationError describes a field-level problem in a project manifest.
// A malformed manifest always blocks command execution; it is never silently
// ignored.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid project manifest: %s", e.Reason)
	}
	return fmt.Sprintf("invalid project manifest: field %q: %s", e.Field, e.Reason)
}

// NewConfigValidation builds a ConfigValidationError for the given field.
func NewConfigValidation(field, reason string) *ConfigValidationError {
	return &ConfigValidationError{Field: field, Reason: reason}
}

// IsConfigValidation reports whether err is (or wraps) a ConfigValidationError.
func IsConfigValidation(err error) bool {
	var ce *ConfigValidationError
	return errors.As(err, &ce)
}
