package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/client"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/validation"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change visited-link settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		api := client.New(apiBaseURL())
		settings, err := api.GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(settings)
	},
}

var (
	setEnabled string
	setColor   string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the global settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		patch := entity.SettingsPatch{}
		if setEnabled != "" {
			v, err := strconv.ParseBool(setEnabled)
			if err != nil {
				return fmt.Errorf("invalid --enabled value %q", setEnabled)
			}
			patch.Enabled = &v
		}
		if setColor != "" {
			if !validation.IsHexColor(setColor) {
				return fmt.Errorf("invalid color %q, expected #rgb or #rrggbb", setColor)
			}
			patch.VisitedColor = &setColor
		}
		if patch.IsZero() {
			return fmt.Errorf("nothing to change, pass --enabled and/or --color")
		}

		api := client.New(apiBaseURL())
		settings, err := api.UpdateSettings(cmd.Context(), patch)
		if err != nil {
			return err
		}
		return printJSON(settings)
	},
}

var (
	siteEnabled string
	siteColor   string
	siteClear   bool
)

var settingsSiteCmd = &cobra.Command{
	Use:   "site <hostname>",
	Short: "Change per-site overrides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site := args[0]
		api := client.New(apiBaseURL())
		patch := entity.SettingsPatch{SiteSettings: map[string]*entity.SiteSetting{}}

		switch {
		case siteClear:
			patch.SiteSettings[site] = nil
		case siteEnabled == "" && siteColor == "":
			return fmt.Errorf("nothing to change, pass --enabled, --color, or --clear")
		default:
			var enabled *bool
			if siteEnabled != "" {
				v, err := strconv.ParseBool(siteEnabled)
				if err != nil {
					return fmt.Errorf("invalid --enabled value %q", siteEnabled)
				}
				enabled = &v
			}
			if siteColor != "" && !validation.IsHexColor(siteColor) {
				return fmt.Errorf("invalid color %q, expected #rgb or #rrggbb", siteColor)
			}

			current, err := api.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			patch.SiteSettings[site] = siteEntry(current, site, enabled, siteColor)
		}

		settings, err := api.UpdateSettings(cmd.Context(), patch)
		if err != nil {
			return err
		}
		return printJSON(settings)
	},
}

// siteEntry builds the replacement entry for one site. Merges start from
// the stored entry so a flag that was not passed leaves the other
// override intact rather than dropping it.
func siteEntry(current entity.Settings, site string, enabled *bool, color string) *entity.SiteSetting {
	entry := current.SiteSettings[site]
	if enabled != nil {
		entry.Enabled = enabled
	}
	if color != "" {
		entry.VisitedColor = color
	}
	return &entry
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		defaults := entity.DefaultSettings()
		patch := entity.SettingsPatch{
			Enabled:      &defaults.Enabled,
			VisitedColor: &defaults.VisitedColor,
		}

		api := client.New(apiBaseURL())
		current, err := api.GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		if len(current.SiteSettings) > 0 {
			patch.SiteSettings = make(map[string]*entity.SiteSetting, len(current.SiteSettings))
			for site := range current.SiteSettings {
				patch.SiteSettings[site] = nil
			}
		}

		settings, err := api.UpdateSettings(cmd.Context(), patch)
		if err != nil {
			return err
		}
		return printJSON(settings)
	},
}

var settingsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the settings document",
	RunE: func(_ *cobra.Command, _ []string) error {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(&entity.Settings{})
		return printJSON(schema)
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setEnabled, "enabled", "", "enable or disable coloring globally (true/false)")
	settingsSetCmd.Flags().StringVar(&setColor, "color", "", "global visited-link color (#rgb or #rrggbb)")

	settingsSiteCmd.Flags().StringVar(&siteEnabled, "enabled", "", "enable or disable coloring for the site (true/false)")
	settingsSiteCmd.Flags().StringVar(&siteColor, "color", "", "site visited-link color (#rgb or #rrggbb)")
	settingsSiteCmd.Flags().BoolVar(&siteClear, "clear", false, "remove all overrides for the site")

	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSiteCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsSchemaCmd)
	rootCmd.AddCommand(settingsCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
