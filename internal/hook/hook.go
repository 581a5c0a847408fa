// Package hook implements the pre-tool-use protocol spoken with the hosting
// agent runtime. The host pipes a JSON description of the tool call to
// stdin; the hook answers through its exit code and streams: a block writes
// the reason to stderr and exits with the deny status, a rewrite prints a
// JSON directive on stdout and exits zero, and a passthrough exits zero
// silently. The hook must never break the host: anything it cannot parse
// passes through.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/calyptra/rv/internal/audit"
	"github.com/calyptra/rv/internal/decision"
)

const (
	// shellToolName is the only tool whose commands are inspected.
	shellToolName = "Bash"

	// ExitAllow and ExitDeny are the statuses the host recognizes.
	ExitAllow = 0
	ExitDeny  = 2
)

// Input is the tool-call description read from stdin.
type Input struct {
	ToolName  string    `json:"tool_name"`
	ToolInput ToolInput `json:"tool_input"`
	Cwd       string    `json:"cwd,omitempty"`
}

type ToolInput struct {
	Command string `json:"command"`
}

// Output is the rewrite directive written to stdout.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

type SpecificOutput struct {
	HookEventName      string       `json:"hookEventName"`
	PermissionDecision string       `json:"permissionDecision"`
	UpdatedInput       UpdatedInput `json:"updatedInput"`
}

type UpdatedInput struct {
	Command string `json:"command"`
}

// Handle reads one tool call from stdin, decides, and returns the exit
// status for the process. auditPath receives a best-effort record of every
// decision.
func Handle(engine *decision.Engine, auditPath string, stdin io.Reader, stdout, stderr io.Writer) int {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return ExitAllow
	}

	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		// Malformed input is the host's problem, not a reason to block.
		return ExitAllow
	}
	if input.ToolName != shellToolName || input.ToolInput.Command == "" {
		return ExitAllow
	}

	d := engine.Decide(input.ToolInput.Command, candidates(input.Cwd))
	// The command itself may embed secrets a human typed; only the verdict
	// is logged.
	logDecision(auditPath, d)

	switch d.Kind {
	case decision.Blocked:
		fmt.Fprintln(stderr, d.Reason)
		return ExitDeny
	case decision.Rewritten:
		out := Output{
			HookSpecificOutput: SpecificOutput{
				HookEventName:      "PreToolUse",
				PermissionDecision: "allow",
				UpdatedInput:       UpdatedInput{Command: d.Command},
			},
		}
		if err := json.NewEncoder(stdout).Encode(out); err != nil {
			return ExitAllow
		}
		return ExitAllow
	default:
		return ExitAllow
	}
}

// candidates lists working-directory sources in preference order: the cwd
// the host reported, the host's project directory variable, then this
// process's own cwd.
func candidates(hostCwd string) []string {
	dirs := []string{hostCwd, os.Getenv("CLAUDE_PROJECT_DIR")}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

func logDecision(auditPath string, d decision.Decision) {
	entry := audit.NewEntry("hook")
	entry.Reason = d.Reason
	switch d.Kind {
	case decision.Blocked:
		entry.Decision = "block"
	case decision.Rewritten:
		entry.Decision = "rewrite"
	default:
		entry.Decision = "passthrough"
	}
	audit.Log(auditPath, entry)
}
