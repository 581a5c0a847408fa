package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/approval"
	"github.com/calyptra/rv/internal/decision"
	"github.com/calyptra/rv/internal/hook"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Runs the pre-tool-use hook for the hosting agent runtime",
	Long: `Reads one tool-call description as JSON from stdin and decides whether
the shell command it carries should be blocked, passed through, or
rewritten into a secret-injecting rv run invocation. Wire it into the
agent runtime's PreToolUse hook configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			// The hook must never break the host over its own setup.
			Logger.Debugf("hook settings failure: %v", err)
			os.Exit(hook.ExitAllow)
		}

		engine := decision.New(approval.New(settings.ApprovalsPath))
		os.Exit(hook.Handle(engine, settings.AuditLogPath, os.Stdin, os.Stdout, os.Stderr))
		return nil
	},
}
