package approval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record marks when a project root was approved.
type Record struct {
	ApprovedAt time.Time `json:"approvedAt"`
}

// Store is the durable map from absolute project root paths to approval
// records. Approval is tied to a filesystem location, not project content:
// moving a project directory invalidates it. Writes are whole-file
// read-modify-write; concurrent writers are an accepted last-writer-wins
// race (approve/revoke are rare, human-triggered operations).
type Store struct {
	path string
}

// New returns a store backed by the given JSON file.
func New(path string) *Store {
	return &Store{path: path}
}

// IsApproved reports whether the project root has a durable approval.
func (s *Store) IsApproved(projectRoot string) (bool, error) {
	records, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := records[projectRoot]
	return ok, nil
}

// Approve records an approval for the project root. Re-approving refreshes
// the timestamp.
func (s *Store) Approve(projectRoot string) error {
	records, err := s.load()
	if err != nil {
		return err
	}
	records[projectRoot] = Record{ApprovedAt: time.Now().UTC()}
	return s.save(records)
}

// Revoke removes an approval, reporting whether one existed.
func (s *Store) Revoke(projectRoot string) (bool, error) {
	records, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := records[projectRoot]; !ok {
		return false, nil
	}
	delete(records, projectRoot)
	return true, s.save(records)
}

// List returns all approved project roots with their records.
func (s *Store) List() (map[string]Record, error) {
	return s.load()
}

func (s *Store) load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read approval store: %w", err)
	}

	records := map[string]Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse approval store at %s: %w", s.path, err)
	}
	return records, nil
}

func (s *Store) save(records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create approval store directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode approval store: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write approval store: %w", err)
	}
	return nil
}
