package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calyptra/rv/internal/audit"
)

var (
	setValue string
	setTags  []string
)

var setCmd = &cobra.Command{
	Use:   "set KEY",
	Short: "Stores a secret value in the vault",
	Long: `Stores a secret under the given key. The value comes from --value, from a
pipe on stdin, or from a hidden interactive prompt, in that order. Use the
scoped form PROJECT__KEY to store a project-specific override.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		Logger.Infof("Starting set command for %s", key)

		value, err := readSecretValue(key)
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner("Storing secret...", verbose)
		defer cleanup()

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := unlockedStore(settings)
		if err != nil {
			return err
		}
		defer store.Lock()

		if err := store.SetSecret(key, value, setTags); err != nil {
			return translateStoreError(err)
		}

		entry := audit.NewEntry("set")
		entry.Key = key
		audit.Log(settings.AuditLogPath, entry)

		spinner.FinalMSG = color.GreenString("✓") + " Stored " + color.CyanString(key)
		return nil
	},
}

// readSecretValue resolves the value without ever echoing it: the --value
// flag wins, then piped stdin, then a hidden terminal prompt.
func readSecretValue(key string) (string, error) {
	if setValue != "" {
		return setValue, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		Logger.Debugf("Reading secret value from stdin pipe")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read value from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}

	fmt.Fprintf(os.Stderr, "Value for %s: ", key)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read value: %w", err)
	}
	return string(data), nil
}

func init() {
	setCmd.Flags().StringVar(&setValue, "value", "", "secret value (prefer stdin or the prompt; flags leak into shell history)")
	setCmd.Flags().StringArrayVar(&setTags, "tag", nil, "tag to attach (repeatable)")
}
