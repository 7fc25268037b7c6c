// Package model contains the Bubble Tea models behind the CLI surfaces.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/linktint/internal/client"
	"github.com/bnema/linktint/internal/cli/styles"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/service"
	"github.com/bnema/linktint/internal/domain/validation"
)

// Control focus order inside the popup.
const (
	focusGlobalToggle = iota
	focusGlobalColor
	focusSiteToggle
	focusCustomToggle
	focusSiteColor
	focusCount
)

// colorField identifies which hex input a debounce flush belongs to.
type colorField int

const (
	fieldGlobal colorField = iota
	fieldSite
)

// PopupModel is the settings panel for global and current-site settings.
type PopupModel struct {
	api      *client.Client
	theme    *styles.Theme
	site     string
	debounce time.Duration

	settings entity.Settings
	loaded   bool
	loadErr  string

	focus       int
	globalInput textinput.Model
	siteInput   textinput.Model
	inputErr    string
	saving      bool

	// Single-slot debounce: a new edit bumps the generation, so only the
	// latest pending flush for each field fires.
	globalGen int
	siteGen   int
}

// NewPopupModel creates the popup for the given site.
func NewPopupModel(api *client.Client, theme *styles.Theme, site string, debounce time.Duration) PopupModel {
	if site == "" {
		site = entity.LocalSite
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	globalInput := textinput.New()
	globalInput.Placeholder = "#551a8b"
	globalInput.CharLimit = 7
	globalInput.Width = 9

	siteInput := textinput.New()
	siteInput.Placeholder = "#abcdef"
	siteInput.CharLimit = 7
	siteInput.Width = 9

	return PopupModel{
		api:         api,
		theme:       theme,
		site:        site,
		debounce:    debounce,
		globalInput: globalInput,
		siteInput:   siteInput,
	}
}

type settingsLoadedMsg struct {
	settings entity.Settings
	err      error
}

type settingsSavedMsg struct {
	settings entity.Settings
	err      error
}

type colorFlushMsg struct {
	field colorField
	gen   int
}

// Init implements tea.Model.
func (m PopupModel) Init() tea.Cmd {
	return m.loadSettings()
}

func (m PopupModel) loadSettings() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		settings, err := m.api.GetSettings(ctx)
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

func (m PopupModel) sendPatch(patch entity.SettingsPatch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		settings, err := m.api.UpdateSettings(ctx, patch)
		return settingsSavedMsg{settings: settings, err: err}
	}
}

// Update implements tea.Model.
func (m PopupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.err != nil {
			m.loadErr = "failed to load settings"
			return m, nil
		}
		m.loaded = true
		m.settings = msg.settings
		m.globalInput.SetValue(msg.settings.VisitedColor)
		if entry, ok := msg.settings.SiteSettings[m.site]; ok && entry.VisitedColor != "" {
			m.siteInput.SetValue(entry.VisitedColor)
		}
		return m, nil

	case settingsSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.inputErr = msg.err.Error()
			return m, nil
		}
		m.settings = msg.settings
		return m, nil

	case colorFlushMsg:
		return m.flushColor(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m PopupModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case " ", "enter":
		if m.focus != focusGlobalColor && m.focus != focusSiteColor {
			return m.toggleFocused()
		}
	}

	// Remaining keys edit the focused color input; a changed value arms
	// the debounce timer, cancelling any pending flush for that field.
	switch m.focus {
	case focusGlobalColor:
		before := m.globalInput.Value()
		var cmd tea.Cmd
		m.globalInput, cmd = m.globalInput.Update(msg)
		if m.globalInput.Value() != before {
			m.inputErr = ""
			m.globalGen++
			return m, tea.Batch(cmd, m.armFlush(fieldGlobal, m.globalGen))
		}
		return m, cmd
	case focusSiteColor:
		if !m.customColorOn() {
			return m, nil
		}
		before := m.siteInput.Value()
		var cmd tea.Cmd
		m.siteInput, cmd = m.siteInput.Update(msg)
		if m.siteInput.Value() != before {
			m.inputErr = ""
			m.siteGen++
			return m, tea.Batch(cmd, m.armFlush(fieldSite, m.siteGen))
		}
		return m, cmd
	}

	return m, nil
}

func (m *PopupModel) setFocus(focus int) {
	m.focus = focus
	m.globalInput.Blur()
	m.siteInput.Blur()
	switch focus {
	case focusGlobalColor:
		m.globalInput.Focus()
	case focusSiteColor:
		m.siteInput.Focus()
	}
}

// toggleFocused flips the toggle under the cursor. Toggles persist
// immediately, without debounce.
func (m PopupModel) toggleFocused() (tea.Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}

	switch m.focus {
	case focusGlobalToggle:
		enabled := !m.settings.Enabled
		m.settings.Enabled = enabled
		m.saving = true
		return m, m.sendPatch(entity.SettingsPatch{Enabled: &enabled})

	case focusSiteToggle:
		entry := m.settings.SiteSettings[m.site]
		current := true
		if entry.Enabled != nil {
			current = *entry.Enabled
		}
		next := !current
		patched := entry
		patched.Enabled = &next
		m.saving = true
		return m, m.sendPatch(entity.SettingsPatch{
			SiteSettings: map[string]*entity.SiteSetting{m.site: &patched},
		})

	case focusCustomToggle:
		entry := m.settings.SiteSettings[m.site]
		if m.customColorOn() {
			// Releasing the toggle removes the color override entirely:
			// the site inherits the global color again.
			patched := entity.SiteSetting{Enabled: entry.Enabled}
			m.siteInput.SetValue("")
			m.siteGen++ // cancel any pending flush
			m.saving = true
			return m, m.sendPatch(entity.SettingsPatch{
				SiteSettings: map[string]*entity.SiteSetting{m.site: &patched},
			})
		}
		color := m.siteInput.Value()
		if color == "" {
			color = m.settings.VisitedColor
			m.siteInput.SetValue(color)
		}
		if !validation.IsHexColor(color) {
			m.inputErr = "invalid hex color"
			return m, nil
		}
		patched := entity.SiteSetting{Enabled: entry.Enabled, VisitedColor: color}
		m.saving = true
		return m, m.sendPatch(entity.SettingsPatch{
			SiteSettings: map[string]*entity.SiteSetting{m.site: &patched},
		})
	}

	return m, nil
}

func (m PopupModel) armFlush(field colorField, gen int) tea.Cmd {
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return colorFlushMsg{field: field, gen: gen}
	})
}

// flushColor persists a debounced color edit, unless a newer edit
// superseded it or the value is not a valid hex color.
func (m PopupModel) flushColor(msg colorFlushMsg) (tea.Model, tea.Cmd) {
	switch msg.field {
	case fieldGlobal:
		if msg.gen != m.globalGen {
			return m, nil
		}
		color := m.globalInput.Value()
		if !validation.IsHexColor(color) {
			m.inputErr = "invalid hex color"
			return m, nil
		}
		m.saving = true
		return m, m.sendPatch(entity.SettingsPatch{VisitedColor: &color})

	case fieldSite:
		if msg.gen != m.siteGen || !m.customColorOn() {
			return m, nil
		}
		color := m.siteInput.Value()
		if !validation.IsHexColor(color) {
			m.inputErr = "invalid hex color"
			return m, nil
		}
		entry := m.settings.SiteSettings[m.site]
		patched := entity.SiteSetting{Enabled: entry.Enabled, VisitedColor: color}
		m.saving = true
		return m, m.sendPatch(entity.SettingsPatch{
			SiteSettings: map[string]*entity.SiteSetting{m.site: &patched},
		})
	}

	return m, nil
}

func (m PopupModel) customColorOn() bool {
	entry, ok := m.settings.SiteSettings[m.site]
	return ok && entry.VisitedColor != ""
}

// View implements tea.Model.
func (m PopupModel) View() string {
	t := m.theme

	if m.loadErr != "" {
		return t.Box.Render(t.ErrorStyle.Render(m.loadErr))
	}
	if !m.loaded {
		return t.Box.Render(t.Subtle.Render("loading settings..."))
	}

	eff := service.Resolve(m.settings, m.site)
	entry := m.settings.SiteSettings[m.site]
	siteEnabled := true
	if entry.Enabled != nil {
		siteEnabled = *entry.Enabled
	}

	label := func(focus int, text string) string {
		if m.focus == focus {
			return t.Focused.Render("> " + text)
		}
		return t.Normal.Render("  " + text)
	}

	status := t.ErrorStyle.Render("● disabled")
	if m.settings.Enabled {
		status = t.SuccessStyle.Render("● enabled")
	}

	body := t.Title.Render("linktint") + "  " + status + "\n"

	body += t.Section.Render("Global") + "\n"
	body += label(focusGlobalToggle, "Color visited links "+t.Checkbox(m.settings.Enabled)) + "\n"
	body += label(focusGlobalColor, "Color ") + m.globalInput.View() + " " + t.Swatch(m.settings.VisitedColor) + "\n"

	body += t.Section.Render("This site: "+m.site) + "\n"
	body += label(focusSiteToggle, "Enabled here "+t.Checkbox(siteEnabled)) + "\n"
	body += label(focusCustomToggle, "Use custom color "+t.Checkbox(m.customColorOn())) + "\n"
	if m.customColorOn() {
		body += label(focusSiteColor, "Site color ") + m.siteInput.View() + " " + t.Swatch(entry.VisitedColor) + "\n"
	}
	body += "\n" + t.Subtle.Render(fmt.Sprintf("effective: %s, %s", onOff(eff.Enabled), eff.VisitedColor)) + "\n"

	if m.inputErr != "" {
		body += t.ErrorStyle.Render(m.inputErr) + "\n"
	}
	if m.saving {
		body += t.Subtle.Render("saving...") + "\n"
	}

	help := t.HelpKey.Render("tab") + t.HelpDesc.Render(" move  ") +
		t.HelpKey.Render("space") + t.HelpDesc.Render(" toggle  ") +
		t.HelpKey.Render("esc") + t.HelpDesc.Render(" close")

	return t.Box.Render(body + "\n" + help)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
