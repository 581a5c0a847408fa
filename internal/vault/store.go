package vault

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	rverrors "github.com/calyptra/rv/internal/errors"
	_ "github.com/mattn/go-sqlite3"
)

// SecretInfo is the metadata view of a stored secret. Plaintext values are
// never part of a listing.
type SecretInfo struct {
	Name      string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the encrypted, file-backed secret table. It starts locked; all
// data operations require Unlock first. Each CLI or hook invocation opens
// its own store and closes it on exit; there is no shared in-memory state
// across invocations.
type Store struct {
	path string
	db   *sql.DB
	key  *[KeySize]byte
}

// New returns a locked store handle for the given backing file. No I/O
// happens until Initialize or a data operation.
func New(path string) *Store {
	return &Store{path: path}
}

// Unlock derives the symmetric key from the passphrase and holds it in
// memory. It does not touch disk; a wrong passphrase surfaces later as an
// authentication error on decrypt.
func (s *Store) Unlock(passphrase string) {
	key := DeriveKey(passphrase)
	s.key = &key
}

// Lock drops the in-memory key and closes the database.
func (s *Store) Lock() {
	if s.key != nil {
		for i := range s.key {
			s.key[i] = 0
		}
		s.key = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Initialize creates the backing file and schema. Re-initializing an
// existing store is a no-op success.
func (s *Store) Initialize() error {
	if s.key == nil {
		return rverrors.ErrNotUnlocked
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS secrets (
			name       TEXT PRIMARY KEY,
			ciphertext BLOB NOT NULL,
			nonce      BLOB NOT NULL,
			tags       TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return fmt.Errorf("%w: failed to create schema: %v", rverrors.ErrStoreCorrupted, err)
	}

	// Owner-only, same as the master key file.
	if err := os.Chmod(s.path, 0600); err != nil {
		db.Close()
		return fmt.Errorf("failed to set store permissions: %w", err)
	}

	s.db = db
	return nil
}

// open lazily opens the backing database for data operations. A missing
// backing file is a typed error the CLI translates into "run rv init".
func (s *Store) open() (*sql.DB, error) {
	if s.key == nil {
		return nil, rverrors.ErrNotUnlocked
	}
	if s.db != nil {
		return s.db, nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, rverrors.ErrStoreNotInitialized
	} else if err != nil {
		return nil, fmt.Errorf("failed to check store at %s: %w", s.path, err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rverrors.ErrStoreCorrupted, err)
	}

	// Single connection: invocations are short-lived and sqlite handles
	// cross-process consistency at the file level.
	db.SetMaxOpenConns(1)

	s.db = db
	return db, nil
}

// SetSecret encrypts and upserts a value. Re-setting a name generates a
// fresh nonce alongside the new ciphertext and bumps updated_at.
func (s *Store) SetSecret(name, value string, tags []string) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	ciphertext, nonce, err := Encrypt([]byte(value), *s.key)
	if err != nil {
		return err
	}

	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO secrets (name, ciphertext, nonce, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce      = excluded.nonce,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, name, ciphertext, nonce, string(tagsJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save secret %s: %w", name, err)
	}
	return nil
}

// GetSecret decrypts and returns the value for name. A missing name is
// ErrSecretNotFound; a failed authentication tag aborts with
// ErrAuthentication and must not be treated as absence.
func (s *Store) GetSecret(name string) (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}

	var ciphertext, nonce []byte
	err = db.QueryRow(`SELECT ciphertext, nonce FROM secrets WHERE name = ?`, name).
		Scan(&ciphertext, &nonce)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", rverrors.ErrSecretNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	plaintext, err := Decrypt(ciphertext, nonce, *s.key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// ListSecrets returns metadata for all secrets, optionally filtered to
// those carrying at least one of the given tags (OR semantics).
func (s *Store) ListSecrets(filterTags []string) ([]SecretInfo, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT name, tags, created_at, updated_at FROM secrets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	defer rows.Close()

	var infos []SecretInfo
	for rows.Next() {
		var info SecretInfo
		var tagsJSON string
		if err := rows.Scan(&info.Name, &tagsJSON, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan secret row: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &info.Tags); err != nil {
			return nil, fmt.Errorf("%w: bad tags for %s", rverrors.ErrStoreCorrupted, info.Name)
		}
		if len(filterTags) == 0 || hasAnyTag(info.Tags, filterTags) {
			infos = append(infos, info)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate secrets: %w", err)
	}
	return infos, nil
}

// Names returns the set of all vault key names, the input the resolver
// needs for scoped-versus-global decisions.
func (s *Store) Names() (map[string]bool, error) {
	infos, err := s.ListSecrets(nil)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(infos))
	for _, info := range infos {
		names[info.Name] = true
	}
	return names, nil
}

// RemoveSecret deletes a secret, reporting whether a row was removed.
func (s *Store) RemoveSecret(name string) (bool, error) {
	db, err := s.open()
	if err != nil {
		return false, err
	}

	result, err := db.Exec(`DELETE FROM secrets WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to remove secret %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}
