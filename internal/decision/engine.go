// Package decision classifies shell commands before the hosting agent runs
// them. Given a raw command string and candidate working directories, the
// engine returns one of three outcomes: block the command with a reason,
// pass it through unchanged, or rewrite it into a secret-injecting `rv run`
// invocation. The engine is a one-shot pure function of the command, the
// on-disk project manifest, and the on-disk approval state.
package decision

import (
	"fmt"
	"strings"

	rverrors "github.com/calyptra/rv/internal/errors"
	"github.com/calyptra/rv/internal/project"
)

// Kind is the outcome class of a decision.
type Kind int

const (
	Passthrough Kind = iota
	Blocked
	Rewritten
)

// Decision is the engine's verdict on one command. Reason is set for Blocked,
// Command for Rewritten.
type Decision struct {
	Kind    Kind
	Reason  string
	Command string
}

func block(reason string) Decision { return Decision{Kind: Blocked, Reason: reason} }
func passthrough() Decision        { return Decision{Kind: Passthrough} }
func rewrite(cmd string) Decision  { return Decision{Kind: Rewritten, Command: cmd} }

// ApprovalChecker reports whether a project root holds a durable approval.
type ApprovalChecker interface {
	IsApproved(projectRoot string) (bool, error)
}

// Engine evaluates an ordered rule list; the first matching rule wins.
type Engine struct {
	Approvals ApprovalChecker
}

// New returns an engine backed by the given approval state.
func New(approvals ApprovalChecker) *Engine {
	return &Engine{Approvals: approvals}
}

// managementAllowList is the set of rv subcommands safe for an agent to run
// directly: none of them can reveal a stored plaintext.
var managementAllowList = map[string]bool{
	"list":   true,
	"set":    true,
	"rm":     true,
	"init":   true,
	"scan":   true,
	"import": true,
	"help":   true,
}

// storeArtifacts are filenames whose appearance in a command means it is
// touching the raw persisted state.
var storeArtifacts = []string{"vault.db", "master.key", "approvals.json"}

// Decide classifies command. candidates are working-directory sources in
// preference order; the first one under a project manifest determines the
// project identity.
func (e *Engine) Decide(command string, candidates []string) Decision {
	if d, matched := dumpsEnvironment(command); matched {
		return d
	}
	if d, matched := touchesStoreFiles(command); matched {
		return d
	}
	if d, matched := revealsRawSecrets(command); matched {
		return d
	}
	if d, matched := humanOnlySubcommand(command); matched {
		return d
	}
	if alreadyWrapped(command) || isManagementCommand(command) {
		return passthrough()
	}
	if d, matched := unknownSubcommand(command); matched {
		return d
	}
	return e.decideForProject(command, candidates)
}

// dumpsEnvironment blocks commands that would print the whole process
// environment, injected secrets included.
func dumpsEnvironment(command string) (Decision, bool) {
	for _, seg := range segments(command) {
		switch firstWord(seg) {
		case "env", "printenv":
			return block("environment-dumping commands (env, printenv) are blocked: they would expose injected secrets"), true
		}
	}
	return Decision{}, false
}

// touchesStoreFiles blocks commands that name the raw store artifacts.
func touchesStoreFiles(command string) (Decision, bool) {
	for _, artifact := range storeArtifacts {
		if strings.Contains(command, artifact) {
			return block(fmt.Sprintf("direct access to %s is blocked: store files may only be read through rv", artifact)), true
		}
	}
	return Decision{}, false
}

// revealsRawSecrets blocks the rv subcommands that print plaintext values.
func revealsRawSecrets(command string) (Decision, bool) {
	for _, seg := range segments(command) {
		if sub, ok := rvSubcommand(seg); ok && (sub == "get" || sub == "export") {
			return block(fmt.Sprintf("rv %s prints raw secret values and is blocked for agents", sub)), true
		}
	}
	return Decision{}, false
}

// humanOnlySubcommand blocks approval-state changes; only a human may grant
// or withdraw a project's access to secrets.
func humanOnlySubcommand(command string) (Decision, bool) {
	for _, seg := range segments(command) {
		if sub, ok := rvSubcommand(seg); ok && (sub == "approve" || sub == "revoke") {
			return block(fmt.Sprintf("rv %s may only be run by a human, not by the agent", sub)), true
		}
	}
	return Decision{}, false
}

// alreadyWrapped reports whether the command is already a rewritten
// invocation. Rewriting it again would double-wrap the quoting.
func alreadyWrapped(command string) bool {
	trimmed := strings.TrimSpace(command)
	return trimmed == "rv run" || strings.HasPrefix(trimmed, "rv run ")
}

// isManagementCommand reports whether the command as a whole is a direct rv
// management invocation.
func isManagementCommand(command string) bool {
	trimmed := strings.TrimSpace(command)
	if trimmed == "rv" {
		return true
	}
	sub, ok := rvSubcommand(trimmed)
	return ok && managementAllowList[sub]
}

// unknownSubcommand blocks rv invocations outside the allow-list. Fail
// closed: a subcommand this engine does not recognize might reveal secrets.
func unknownSubcommand(command string) (Decision, bool) {
	for _, seg := range segments(command) {
		if sub, ok := rvSubcommand(seg); ok && sub != "run" && !managementAllowList[sub] {
			return block(fmt.Sprintf("unknown rv subcommand %q is blocked", sub)), true
		}
	}
	return Decision{}, false
}

// decideForProject applies the project rules: no manifest or an empty one
// passes through, a malformed one blocks, an unapproved project blocks, and
// an approved project rewrites the command.
func (e *Engine) decideForProject(command string, candidates []string) Decision {
	root, err := findProjectRoot(candidates)
	if err != nil {
		return block(fmt.Sprintf("failed to locate project manifest: %v", err))
	}
	if root == "" {
		return passthrough()
	}

	cfg, err := project.LoadConfig(root)
	if err != nil {
		if rverrors.IsConfigValidation(err) {
			return block(err.Error())
		}
		return block(fmt.Sprintf("failed to load project manifest: %v", err))
	}
	if len(cfg.Secrets) == 0 {
		return passthrough()
	}

	approved, err := e.Approvals.IsApproved(root)
	if err != nil {
		return block(fmt.Sprintf("failed to read approval state: %v", err))
	}
	name := project.Name(cfg, root)
	if !approved {
		return block(fmt.Sprintf("project %q at %s is not approved for secret injection; a human must run: rv approve (from the project root)", name, root))
	}

	// The rewrite carries the normalized name: it is the form scoped keys
	// are stored under, and it is always shell-safe.
	return rewrite(buildRewrite(command, project.Normalize(name), cfg.KeySpecs()))
}

// buildRewrite wraps the original command as a literal sh -c argument so
// pipes, operators, quoting, and heredocs inside it survive untouched.
func buildRewrite(command, projectName string, keySpecs []string) string {
	parts := []string{"rv", "run", "--project", quoteArg(projectName)}
	for _, spec := range keySpecs {
		parts = append(parts, quoteArg(spec))
	}
	parts = append(parts, "--", "sh", "-c", SingleQuote(command))
	return strings.Join(parts, " ")
}

// findProjectRoot tries each candidate directory in order, walking upward
// from each, and returns the first project root found.
func findProjectRoot(candidates []string) (string, error) {
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		root, err := project.FindConfigUpward(dir)
		if err != nil {
			return "", err
		}
		if root != "" {
			return root, nil
		}
	}
	return "", nil
}

// segments splits a command on shell control operators so each simple
// command can be classified on its own. This is a classifier, not a parser:
// operators inside quotes split too, which errs toward blocking.
func segments(command string) []string {
	replaced := command
	for _, op := range []string{"&&", "||", ";", "|", "\n", "$(", "`"} {
		replaced = strings.ReplaceAll(replaced, op, "\x00")
	}
	var segs []string
	for _, seg := range strings.Split(replaced, "\x00") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func firstWord(segment string) string {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// rvSubcommand extracts the subcommand of an rv invocation, skipping flags.
func rvSubcommand(segment string) (string, bool) {
	fields := strings.Fields(segment)
	if len(fields) < 2 || fields[0] != "rv" {
		return "", false
	}
	for _, f := range fields[1:] {
		if !strings.HasPrefix(f, "-") {
			return f, true
		}
	}
	return "", false
}
