package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLog_AppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	entry := NewEntry("set")
	entry.Key = "OPENAI_API_KEY"
	Log(path, entry)

	second := NewEntry("rm")
	second.Key = "OPENAI_API_KEY"
	Log(path, second)

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}
	if entries[0].Operation != "set" || entries[1].Operation != "rm" {
		t.Errorf("Unexpected operations: %+v", entries)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Errorf("Expected distinct event IDs, got: %q and %q", entries[0].ID, entries[1].ID)
	}
	if entries[0].Timestamp == "" {
		t.Errorf("Expected a timestamp to be populated")
	}
}

func TestLog_MissingPathIsBestEffort(t *testing.T) {
	// Must not panic or error; logging failures never fail the operation.
	Log("", NewEntry("set"))
	Log(filepath.Join(string([]byte{0}), "audit.jsonl"), NewEntry("set"))
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if entries != nil {
		t.Errorf("Expected no entries for a missing log, got: %v", entries)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := strings.Join([]string{
		`{"id":"a","ts":"2026-01-01T00:00:00.000000Z","op":"set","key":"K"}`,
		`not json`,
		`{"id":"b","ts":"2026-01-01T00:00:01.000000Z","op":"rm","key":"K"}`,
		``,
	}, "\n")

	entries, err := ParseEntries([]byte(data))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected malformed lines to be skipped, got %d entries", len(entries))
	}
	if entries[0].ID != "a" || entries[1].ID != "b" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestLog_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	Log(path, NewEntry("init"))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat audit log: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("Expected owner-only permissions, got: %04o", perm)
	}
}
