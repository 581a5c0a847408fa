package cmd

import (
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/audit"
	"github.com/calyptra/rv/internal/config"
	"github.com/calyptra/rv/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Creates the master key and the encrypted secret store",
	Long: `Creates the rv root directory, generates a random master key with
owner-only permissions, and initializes the encrypted secret store.
Running init twice is safe: an existing key and store are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing vault...", verbose)
		defer cleanup()

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.EnsureRoot(); err != nil {
			return err
		}

		Logger.Debugf("Ensuring master key at %s", settings.MasterKeyPath)
		created, err := vault.EnsureMasterKey(settings.MasterKeyPath)
		if err != nil {
			return err
		}

		// Seed a discoverable config file on first init; empty values mean
		// the defaults stay in effect.
		configPath := filepath.Join(settings.RootDir, "config.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			Logger.Debugf("Writing default config to %s", configPath)
			defaults := config.UserConfig{Mask: config.MaskConfig{Redaction: config.DefaultRedaction}}
			if err := config.SaveTOML(configPath, defaults); err != nil {
				return err
			}
		}

		store, err := unlockedStore(settings)
		if err != nil {
			return err
		}
		defer store.Lock()

		Logger.Debugf("Initializing store at %s", settings.StorePath)
		if err := store.Initialize(); err != nil {
			return translateStoreError(err)
		}

		audit.Log(settings.AuditLogPath, audit.NewEntry("init"))

		if created {
			spinner.FinalMSG = color.GreenString("✓") + " Vault initialized at " + color.YellowString(settings.RootDir) + "\n" +
				color.CyanString("→") + " Store a secret with " + color.YellowString("rv set KEY")
		} else {
			spinner.FinalMSG = color.GreenString("✓") + " Vault already exists at " + color.YellowString(settings.RootDir) + "\n" +
				color.CyanString("→") + " The existing master key was kept"
		}
		return nil
	},
}
