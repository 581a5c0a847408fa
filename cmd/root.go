package cmd

import (
	logger "github.com/calyptra/rv/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
)

var RootCmd = &cobra.Command{
	Use:   "rv",
	Short: "rv - a local secrets vault that lets agents run commands without seeing credentials",
	Long: `rv stores credentials in an encrypted local vault and injects them into
shell commands as environment variables, masking the values out of the
command's output. A coding agent never observes a plaintext secret: its
commands are inspected by a pre-tool-use hook and rewritten into
secret-injecting invocations for approved projects.

Usage:
  rv <command> [flags]

Common commands:
  init       Create the master key and secret store
  set        Store a secret value
  list       List stored secret names (never values)
  approve    Approve a project for secret injection (human-only)
  scan       Compare a project's declared keys against the vault
  run        Run a command with secrets injected and masked
  hook       The pre-tool-use hook entry point for the agent runtime

Run 'rv help <command>' for more details on a specific command.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing rv with verbose=%t, debug=%t", verbose, debug)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(rmCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(approveCmd)
	RootCmd.AddCommand(revokeCmd)
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(hookCmd)
}
