package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/cli/model"
	"github.com/bnema/linktint/internal/cli/styles"
	"github.com/bnema/linktint/internal/client"
	"github.com/bnema/linktint/internal/domain/entity"
)

var popupSite string

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Open the settings popup",
	Long: `Opens the interactive settings popup for the active tab's site.
Use --site to edit a specific site without asking the daemon.`,
	RunE: runPopup,
}

func init() {
	popupCmd.Flags().StringVar(&popupSite, "site", "", "site to edit instead of the active tab's")
	rootCmd.AddCommand(popupCmd)
}

func runPopup(cmd *cobra.Command, _ []string) error {
	api := client.New(apiBaseURL())

	site := popupSite
	if site == "" {
		_, _, tabSite, err := api.ActiveTab(cmd.Context())
		if err != nil {
			return fmt.Errorf("resolve active tab (is the daemon running?): %w", err)
		}
		site = tabSite
	}
	if site == "" {
		site = entity.LocalSite
	}

	m := model.NewPopupModel(api, styles.NewTheme(), site, cfgManager.Get().Popup.Debounce)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("popup failed: %w", err)
	}
	return nil
}
