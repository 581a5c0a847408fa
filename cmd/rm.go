package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/audit"
)

var rmCmd = &cobra.Command{
	Use:   "rm KEY",
	Short: "Removes a secret from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		Logger.Infof("Starting rm command for %s", key)
		spinner, cleanup := startSpinner("Removing secret...", verbose)
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

		removed, err := store.RemoveSecret(key)
		if err != nil {
			return translateStoreError(err)
		}
		if !removed {
			spinner.FinalMSG = color.RedString("✗") + " No secret named " + color.CyanString(key)
			return nil
		}

		entry := audit.NewEntry("rm")
		entry.Key = key
		audit.Log(settings.AuditLogPath, entry)

		spinner.FinalMSG = color.GreenString("✓") + " Removed " + color.CyanString(key)
		return nil
	},
}
