package cmd

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/audit"
)

var importTags []string

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Imports secrets from a dotenv file into the vault",
	Long: `Parses FILE as a dotenv file and stores every entry in the vault under
its variable name. Existing entries with the same name are overwritten.
The file itself is left untouched; delete it afterwards to keep the vault
the only place the values live.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		Logger.Infof("Starting import command for %s", file)
		spinner, cleanup := startSpinner("Importing secrets...", verbose)
		defer cleanup()

		values, err := godotenv.Read(file)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
		if len(values) == 0 {
			spinner.FinalMSG = color.RedString("✗") + " No entries found in " + color.YellowString(file)
			return nil
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := unlockedStore(settings)
		if err != nil {
			return err
		}
		defer store.Lock()

		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			Logger.Debugf("Importing %s", key)
			if err := store.SetSecret(key, values[key], importTags); err != nil {
				return translateStoreError(err)
			}
		}

		entry := audit.NewEntry("import")
		entry.Keys = len(keys)
		audit.Log(settings.AuditLogPath, entry)

		spinner.FinalMSG = color.GreenString("✓") + fmt.Sprintf(" Imported %d secret(s) from ", len(keys)) + color.YellowString(file) + "\n" +
			color.CyanString("→") + " Consider deleting " + color.YellowString(file) + " now that the vault holds the values"
		return nil
	},
}

func init() {
	importCmd.Flags().StringArrayVar(&importTags, "tag", nil, "tag to attach to every imported secret (repeatable)")
}
