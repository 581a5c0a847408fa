package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/approval"
	"github.com/calyptra/rv/internal/audit"
	"github.com/calyptra/rv/internal/config"
	"github.com/calyptra/rv/internal/project"
	"github.com/calyptra/rv/internal/ui"
)

var approveCmd = &cobra.Command{
	Use:   "approve [DIR]",
	Short: "Approves a project for secret injection (human-only)",
	Long: `Marks the project at DIR (default: the current directory) as approved:
the hook will rewrite the agent's commands there to inject the secrets the
project manifest declares. Approval is tied to the absolute path; moving
the project directory revokes it implicitly. The hook blocks agents from
running this command themselves.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveProjectArg(args)
		if err != nil {
			return err
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.EnsureRoot(); err != nil {
			return err
		}

		if err := approval.New(settings.ApprovalsPath).Approve(root); err != nil {
			return err
		}

		name := project.Name(cfg, root)
		entry := audit.NewEntry("approve")
		entry.Project = name
		audit.Log(settings.AuditLogPath, entry)

		fmt.Println(color.GreenString("✓") + " Approved " + color.CyanString(name) + " at " + color.YellowString(root) + "\n" +
			color.CyanString("→") + " " + fmt.Sprintf("%d declared key(s) will be injected for commands run there", len(cfg.Secrets)))
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [DIR]",
	Short: "Revokes a project's approval (human-only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := resolveProjectArg(args)
		if err != nil {
			return err
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}

		removed, err := approval.New(settings.ApprovalsPath).Revoke(root)
		if err != nil {
			return err
		}

		name := project.Name(cfg, root)
		if !removed {
			fmt.Println(ui.Warning.Sprint("✗") + " " + ui.Key.Sprint(name) + " was not approved")
			return nil
		}

		entry := audit.NewEntry("revoke")
		entry.Project = name
		audit.Log(settings.AuditLogPath, entry)

		fmt.Println(color.GreenString("✓") + " Revoked " + color.CyanString(name) + " at " + color.YellowString(root))
		return nil
	},
}

// resolveProjectArg turns the optional DIR argument into an absolute project
// root with a valid manifest. The strict lookup is deliberate: approving a
// parent directory by accident would widen the grant.
func resolveProjectArg(args []string) (string, *project.Config, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if _, err := os.Stat(root); err != nil {
		return "", nil, fmt.Errorf("no such directory: %s", root)
	}

	path, err := project.FindConfig(root)
	if err != nil {
		return "", nil, err
	}
	if path == "" {
		return "", nil, fmt.Errorf("no %s manifest in %s; create one declaring the project's secrets first",
			config.ManifestName, root)
	}

	cfg, err := project.LoadConfig(root)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}
