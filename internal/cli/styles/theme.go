// Package styles provides reusable lipgloss-based TUI components.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss colors and styles used by the popup.
type Theme struct {
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Error  lipgloss.Color
	Green  lipgloss.Color

	Title        lipgloss.Style
	Section      lipgloss.Style
	Normal       lipgloss.Style
	Subtle       lipgloss.Style
	Focused      lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	HelpKey      lipgloss.Style
	HelpDesc     lipgloss.Style
	Box          lipgloss.Style
}

// NewTheme returns the default popup theme.
func NewTheme() *Theme {
	t := &Theme{
		Text:   lipgloss.Color("#e0def4"),
		Muted:  lipgloss.Color("#6e6a86"),
		Accent: lipgloss.Color("#c4a7e7"),
		Error:  lipgloss.Color("#eb6f92"),
		Green:  lipgloss.Color("#9ccfd8"),
	}

	t.Title = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.Section = lipgloss.NewStyle().Bold(true).Foreground(t.Text).MarginTop(1)
	t.Normal = lipgloss.NewStyle().Foreground(t.Text)
	t.Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	t.Focused = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(t.Error)
	t.SuccessStyle = lipgloss.NewStyle().Foreground(t.Green)
	t.HelpKey = lipgloss.NewStyle().Foreground(t.Accent)
	t.HelpDesc = lipgloss.NewStyle().Foreground(t.Muted)
	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(1, 2)

	return t
}

// Swatch renders a small color sample block for a hex color.
func (t *Theme) Swatch(hex string) string {
	if hex == "" {
		return t.Subtle.Render("  ·  ")
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("     ")
}

// Checkbox renders an on/off toggle.
func (t *Theme) Checkbox(on bool) string {
	if on {
		return t.SuccessStyle.Render("[x]")
	}
	return t.Subtle.Render("[ ]")
}
