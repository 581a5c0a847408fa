package vault

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calyptra/rv/internal/config"
	rverrors "github.com/calyptra/rv/internal/errors"
)

// EnsureMasterKey creates the master key file if it does not exist yet.
// Returns true if a new key was generated, false if one already existed
// (re-running init is a no-op success, not an error).
func EnsureMasterKey(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check master key at %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("failed to create key directory: %w", err)
	}

	key, err := NewMasterKey()
	if err != nil {
		return false, err
	}

	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return false, fmt.Errorf("failed to write master key: %w", err)
	}
	return true, nil
}

// LoadPassphrase returns the store passphrase: RV_PASSPHRASE from the
// environment if set, otherwise the contents of the master key file.
// Absence of both means the store was never initialized.
func LoadPassphrase(masterKeyPath string) (string, error) {
	if pass := os.Getenv(config.PassphraseEnv); pass != "" {
		return pass, nil
	}

	data, err := os.ReadFile(masterKeyPath)
	if os.IsNotExist(err) {
		return "", rverrors.ErrNoPassphrase
	}
	if err != nil {
		return "", fmt.Errorf("failed to read master key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
