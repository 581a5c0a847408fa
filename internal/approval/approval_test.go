package approval

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "approvals.json"))
}

func TestStore_ApproveAndRevoke(t *testing.T) {
	s := newTestStore(t)

	approved, err := s.IsApproved("/home/alice/projects/app")
	if err != nil {
		t.Fatalf("IsApproved failed: %v", err)
	}
	if approved {
		t.Errorf("Expected fresh store to have no approvals")
	}

	if err := s.Approve("/home/alice/projects/app"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	approved, err = s.IsApproved("/home/alice/projects/app")
	if err != nil {
		t.Fatalf("IsApproved failed: %v", err)
	}
	if !approved {
		t.Errorf("Expected project to be approved")
	}

	removed, err := s.Revoke("/home/alice/projects/app")
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !removed {
		t.Errorf("Expected Revoke to report a removed approval")
	}

	approved, err = s.IsApproved("/home/alice/projects/app")
	if err != nil {
		t.Fatalf("IsApproved failed: %v", err)
	}
	if approved {
		t.Errorf("Expected approval to be gone after revoke")
	}
}

func TestStore_RevokeUnknownPath(t *testing.T) {
	s := newTestStore(t)

	removed, err := s.Revoke("/never/approved")
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if removed {
		t.Errorf("Expected revoke of an unknown path to report false")
	}
}

func TestStore_KeyedByExactPath(t *testing.T) {
	s := newTestStore(t)

	if err := s.Approve("/home/alice/projects/app"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	// Approval is tied to the exact path; a moved project is unapproved.
	approved, err := s.IsApproved("/home/alice/work/app")
	if err != nil {
		t.Fatalf("IsApproved failed: %v", err)
	}
	if approved {
		t.Errorf("Expected a different path to be unapproved")
	}
}

func TestStore_PersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.json")

	if err := New(path).Approve("/home/alice/projects/app"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	approved, err := New(path).IsApproved("/home/alice/projects/app")
	if err != nil {
		t.Fatalf("IsApproved failed: %v", err)
	}
	if !approved {
		t.Errorf("Expected approval to persist across store handles")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat approval store: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("Expected owner-only permissions, got: %04o", perm)
	}
}
