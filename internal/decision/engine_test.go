package decision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calyptra/rv/internal/approval"
	"github.com/calyptra/rv/internal/config"
)

func newTestEngine(t *testing.T) (*Engine, *approval.Store) {
	t.Helper()
	approvals := approval.New(filepath.Join(t.TempDir(), "approvals.json"))
	return New(approvals), approvals
}

func writeProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ManifestName), []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return dir
}

func TestDecide_HardBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)

	commands := []string{
		"env",
		"printenv OPENAI_API_KEY",
		"echo ok && env",
		"cat output | env",
		"cat ~/.rv/vault.db",
		"strings /home/alice/.rv/master.key",
		"rv get OPENAI_API_KEY",
		"rv export",
		"echo start; rv get KEY",
	}

	for _, cmd := range commands {
		d := engine.Decide(cmd, nil)
		if d.Kind != Blocked {
			t.Errorf("Expected %q to be blocked, got kind %d", cmd, d.Kind)
		}
		if d.Reason == "" {
			t.Errorf("Expected a block reason for %q", cmd)
		}
	}
}

func TestDecide_HumanOnlySubcommands(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, cmd := range []string{"rv approve", "rv revoke", "cd /tmp && rv approve"} {
		d := engine.Decide(cmd, nil)
		if d.Kind != Blocked {
			t.Fatalf("Expected %q to be blocked, got kind %d", cmd, d.Kind)
		}
		if !strings.Contains(d.Reason, "human") {
			t.Errorf("Expected the reason to name the allowed actor, got: %q", d.Reason)
		}
	}
}

func TestDecide_NeverDoubleWraps(t *testing.T) {
	engine, _ := newTestEngine(t)

	wrapped := "rv run --project MYAPP OPENAI_API_KEY -- sh -c 'echo hi'"
	d := engine.Decide(wrapped, nil)
	if d.Kind != Passthrough {
		t.Errorf("Expected an already-wrapped command to pass through, got kind %d", d.Kind)
	}
}

func TestDecide_ManagementAllowList(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, cmd := range []string{"rv list", "rv set KEY", "rv rm KEY", "rv init", "rv scan", "rv import .env", "rv"} {
		d := engine.Decide(cmd, nil)
		if d.Kind != Passthrough {
			t.Errorf("Expected %q to pass through, got kind %d (%s)", cmd, d.Kind, d.Reason)
		}
	}

	d := engine.Decide("rv frobnicate", nil)
	if d.Kind != Blocked || !strings.Contains(d.Reason, "unknown") {
		t.Errorf("Expected an unknown subcommand to be blocked, got: %+v", d)
	}
}

func TestDecide_NoProjectPassesThrough(t *testing.T) {
	engine, _ := newTestEngine(t)

	d := engine.Decide("echo hello", []string{t.TempDir()})
	if d.Kind != Passthrough {
		t.Errorf("Expected passthrough without a manifest, got kind %d", d.Kind)
	}
}

func TestDecide_EmptySecretsPassesThrough(t *testing.T) {
	engine, _ := newTestEngine(t)
	dir := writeProject(t, `{"secrets": {}}`)

	d := engine.Decide("echo hello", []string{dir})
	if d.Kind != Passthrough {
		t.Errorf("Expected passthrough for a manifest with no secrets, got kind %d", d.Kind)
	}
}

func TestDecide_MalformedManifestBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	dir := writeProject(t, `{"secrets": "nope"}`)

	d := engine.Decide("echo hello", []string{dir})
	if d.Kind != Blocked {
		t.Fatalf("Expected a malformed manifest to block, got kind %d", d.Kind)
	}
	if !strings.Contains(d.Reason, "secrets") {
		t.Errorf("Expected a field-level reason, got: %q", d.Reason)
	}
}

func TestDecide_UnapprovedProjectBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	dir := writeProject(t, `{"project": "myapp", "secrets": {"A": {}}}`)

	d := engine.Decide("echo hello", []string{dir})
	if d.Kind != Blocked {
		t.Fatalf("Expected an unapproved project to block, got kind %d", d.Kind)
	}
	if !strings.Contains(d.Reason, "rv approve") {
		t.Errorf("Expected the reason to mention the approval command, got: %q", d.Reason)
	}
}

func TestDecide_ApprovedProjectRewrites(t *testing.T) {
	engine, approvals := newTestEngine(t)
	dir := writeProject(t, `{"project": "myapp", "secrets": {"A": {}}}`)
	if err := approvals.Approve(dir); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	d := engine.Decide("echo 'hello world'", []string{dir})
	if d.Kind != Rewritten {
		t.Fatalf("Expected a rewrite, got: %+v", d)
	}
	if !strings.HasPrefix(d.Command, "rv run --project MYAPP A -- sh -c ") {
		t.Errorf("Unexpected rewrite shape: %q", d.Command)
	}

	// The trailing quoted command, parsed back by a shell, must reproduce
	// the original exactly.
	inner := d.Command[strings.Index(d.Command, "sh -c ")+len("sh -c "):]
	if got := shellUnquote(t, inner); got != "echo 'hello world'" {
		t.Errorf("Round-trip mismatch: %q", got)
	}
}

func TestDecide_RewriteUsesNormalizedProjectName(t *testing.T) {
	engine, approvals := newTestEngine(t)
	dir := writeProject(t, `{"project": "my-app 2.0", "secrets": {"A": {}}}`)
	if err := approvals.Approve(dir); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	d := engine.Decide("echo hi", []string{dir})
	if d.Kind != Rewritten {
		t.Fatalf("Expected a rewrite, got: %+v", d)
	}
	// The --project value is the normalized form scoped keys are stored
	// under, never the raw manifest spelling.
	if !strings.HasPrefix(d.Command, "rv run --project MY_APP_2_0 A -- sh -c ") {
		t.Errorf("Unexpected rewrite shape: %q", d.Command)
	}
}

func TestDecide_SubdirectoryResolvesProject(t *testing.T) {
	engine, approvals := newTestEngine(t)
	root := writeProject(t, `{"project": "myapp", "secrets": {"A": {}}}`)
	if err := approvals.Approve(root); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	sub := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	d := engine.Decide("make test", []string{sub})
	if d.Kind != Rewritten {
		t.Errorf("Expected a subdirectory command to rewrite, got: %+v", d)
	}
}

func TestDecide_FirstCandidateWins(t *testing.T) {
	engine, approvals := newTestEngine(t)
	first := writeProject(t, `{"project": "first", "secrets": {"A": {}}}`)
	second := writeProject(t, `{"project": "second", "secrets": {"B": {}}}`)
	for _, dir := range []string{first, second} {
		if err := approvals.Approve(dir); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
	}

	d := engine.Decide("echo hi", []string{"", first, second})
	if d.Kind != Rewritten {
		t.Fatalf("Expected a rewrite, got: %+v", d)
	}
	if !strings.Contains(d.Command, "--project FIRST") {
		t.Errorf("Expected the first candidate's project, got: %q", d.Command)
	}
}

// shellUnquote reverses SingleQuote the way a POSIX shell would: a quoted
// span ends at ', and '\'' splices in a literal quote.
func shellUnquote(t *testing.T, s string) string {
	t.Helper()
	var b strings.Builder
	rest := s
	for {
		if !strings.HasPrefix(rest, "'") {
			t.Fatalf("Expected a single-quoted string, got: %q", s)
		}
		rest = rest[1:]
		end := strings.Index(rest, "'")
		if end < 0 {
			t.Fatalf("Unterminated quote in: %q", s)
		}
		b.WriteString(rest[:end])
		rest = rest[end+1:]
		if rest == "" {
			return b.String()
		}
		if !strings.HasPrefix(rest, `\'`) {
			t.Fatalf("Unexpected trailing content in: %q", s)
		}
		b.WriteByte('\'')
		rest = rest[2:]
	}
}

func TestSingleQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"hello world", "'hello world'"},
		{"it's", `'it'\''s'`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := SingleQuote(tt.in); got != tt.want {
			t.Errorf("SingleQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
