package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/config"
	"github.com/calyptra/rv/internal/project"
	"github.com/calyptra/rv/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "Compares a project's declared keys against the vault",
	Long: `Reads the project manifest at or above DIR (default: the current
directory) and reports, for every declared key, whether the vault holds a
project-scoped entry, a global entry, or nothing. This is the remediation
view for keys the executor reports as missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", dir, err)
		}

		root, err := project.FindConfigUpward(abs)
		if err != nil {
			return err
		}
		if root == "" {
			return fmt.Errorf("no %s manifest at or above %s", config.ManifestName, abs)
		}
		cfg, err := project.LoadConfig(root)
		if err != nil {
			return err
		}
		name := project.Name(cfg, root)

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := unlockedStore(settings)
		if err != nil {
			return err
		}
		defer store.Lock()

		names, err := store.Names()
		if err != nil {
			return translateStoreError(err)
		}

		fmt.Println("Project " + color.CyanString(name) + " at " + color.YellowString(root))

		keys := make([]string, 0, len(cfg.Secrets))
		for key := range cfg.Secrets {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		missing := 0
		for _, key := range keys {
			scoped := project.ScopedKey(name, key)
			switch {
			case names[scoped]:
				fmt.Println("  " + ui.Success.Sprint("✓") + " " + ui.Key.Sprint(key) + " " + ui.Muted.Sprint("scoped: "+scoped))
			case names[key]:
				fmt.Println("  " + ui.Success.Sprint("✓") + " " + ui.Key.Sprint(key) + " " + ui.Muted.Sprint("global"))
			default:
				fmt.Println("  " + ui.Error.Sprint("✗") + " " + ui.Key.Sprint(key) + " " + ui.Muted.Sprint("missing"))
				missing++
			}
		}

		if missing > 0 {
			fmt.Println(ui.Info.Sprint("→") + fmt.Sprintf(" %d key(s) missing; add them with ", missing) + ui.Code.Sprint("rv set KEY"))
		}
		return nil
	},
}
