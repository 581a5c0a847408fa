package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// PassphraseEnv is the environment variable checked for a store
	// passphrase before falling back to the master key file. It is always
	// stripped from child process environments.
	PassphraseEnv = "RV_PASSPHRASE"

	// RootEnv overrides the rv root directory.
	RootEnv = "RV_HOME"

	// DefaultRedaction replaces secret values in masked command output.
	DefaultRedaction = "[REDACTED]"

	// ManifestName is the per-project manifest file name.
	ManifestName = ".rv.json"
)

// UserConfig holds optional overrides loaded from config.toml in the rv root.
type UserConfig struct {
	Vault VaultConfig `toml:"vault"`
	Mask  MaskConfig  `toml:"mask"`
}

type VaultConfig struct {
	// Path overrides the secret store backing file location.
	Path string `toml:"path"`
}

type MaskConfig struct {
	// Redaction overrides the token substituted for secret values.
	Redaction string `toml:"redaction"`
}

// Settings resolves every on-disk path rv uses. The master key, approval
// store, and audit log always live in the root directory; the store backing
// file defaults there too but can be moved via config.toml.
type Settings struct {
	RootDir       string
	MasterKeyPath string
	StorePath     string
	ApprovalsPath string
	AuditLogPath  string
	Redaction     string
}

// Load resolves settings from the environment and the optional config.toml.
// The root directory is RV_HOME if set, otherwise ~/.rv.
func Load() (*Settings, error) {
	root := os.Getenv(RootEnv)
	if root == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(homeDir, ".rv")
	}

	s := &Settings{
		RootDir:       root,
		MasterKeyPath: filepath.Join(root, "master.key"),
		StorePath:     filepath.Join(root, "vault.db"),
		ApprovalsPath: filepath.Join(root, "approvals.json"),
		AuditLogPath:  filepath.Join(root, "audit.jsonl"),
		Redaction:     DefaultRedaction,
	}

	configPath := filepath.Join(root, "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		var cfg UserConfig
		if err := LoadTOML(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
		}
		if cfg.Vault.Path != "" {
			s.StorePath = cfg.Vault.Path
		}
		if cfg.Mask.Redaction != "" {
			s.Redaction = cfg.Mask.Redaction
		}
	}

	return s, nil
}

// EnsureRoot creates the root directory with owner-only permissions.
func (s *Settings) EnsureRoot() error {
	if err := os.MkdirAll(s.RootDir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.RootDir, err)
	}
	return nil
}
