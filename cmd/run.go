package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/config"
	"github.com/calyptra/rv/internal/runner"
)

var (
	runProject string
	runDotenv  string
	runNoMask  bool
	runAll     bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [KEY|KEY=ALIAS ...] -- command [args...]",
	Short: "Runs a command with secrets injected into its environment",
	Long: `Resolves the requested keys against the vault (preferring project-scoped
entries), injects them as environment variables into the command after --,
and masks their values out of the command's output. The command's exit
code is passed through; a command that cannot be started exits 127.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash := cmd.ArgsLenAtDash()
		if dash < 0 {
			fmt.Fprintln(os.Stderr, "usage: rv run [flags] [KEY ...] -- command [args...]")
			os.Exit(runner.ExitUsage)
		}

		code, err := runner.Run(mustLoadSettings(), runner.Options{
			Specs:      args[:dash],
			Project:    runProject,
			All:        runAll,
			DotenvPath: runDotenv,
			NoMask:     runNoMask,
			Argv:       args[dash:],
			Stdin:      os.Stdin,
			Stdout:     os.Stdout,
			Stderr:     os.Stderr,
			Logger:     Logger,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "rv run:", err)
		}
		os.Exit(code)
		return nil
	},
}

// mustLoadSettings exits on settings failure; run's contract is exit codes,
// not wrapped errors.
func mustLoadSettings() *config.Settings {
	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rv run:", err)
		os.Exit(1)
	}
	return settings
}

func init() {
	runCmd.Flags().StringVar(&runProject, "project", "", "project name for scoped key resolution")
	runCmd.Flags().StringVar(&runDotenv, "dotenv", "", "also write resolved values to this dotenv file for the command's duration")
	runCmd.Flags().BoolVar(&runNoMask, "no-mask", false, "do not mask secret values in the command's output")
	runCmd.Flags().BoolVar(&runAll, "all", false, "inject every key declared in the project manifest")
}
