package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"` // Random UUID per event.
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	Key      string `json:"key,omitempty"`      // For set/rm.
	Project  string `json:"project,omitempty"`  // For approve/revoke/run.
	Keys     int    `json:"keys,omitempty"`     // For run/import.
	Missing  int    `json:"missing,omitempty"`  // For run.
	Decision string `json:"decision,omitempty"` // For hook (block/passthrough/rewrite).
	Reason   string `json:"reason,omitempty"`   // For hook blocks.
	ExitCode int    `json:"exit_code,omitempty"`
}

// NewEntry returns an entry for op with a fresh event ID and timestamp.
func NewEntry(op string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Operation: op,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000000Z"),
	}
}

// Log appends an entry to the audit log at path.
// Logging is best-effort: operations should not fail just because the
// audit log could not be written. Secret values never appear in entries.
func Log(path string, entry Entry) {
	if path == "" {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
