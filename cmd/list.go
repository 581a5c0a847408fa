package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calyptra/rv/internal/ui"
)

var listTags []string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists stored secret names and metadata, never values",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := unlockedStore(settings)
		if err != nil {
			return err
		}
		defer store.Lock()

		infos, err := store.ListSecrets(listTags)
		if err != nil {
			return translateStoreError(err)
		}

		if len(infos) == 0 {
			fmt.Println(ui.Muted.Sprint("no secrets stored") + "\n" +
				ui.Info.Sprint("→") + " Add one with " + ui.Code.Sprint("rv set KEY"))
			return nil
		}

		for _, info := range infos {
			line := color.CyanString(info.Name)
			if len(info.Tags) > 0 {
				line += "  " + ui.Muted.Sprint(strings.Join(info.Tags, ", "))
			}
			line += "  " + ui.Muted.Sprint("updated "+info.UpdatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringArrayVar(&listTags, "tag", nil, "only show secrets carrying this tag (repeatable)")
}
