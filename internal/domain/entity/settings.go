package entity

// DefaultVisitedColor is the classic visited-link purple applied on first run.
const DefaultVisitedColor = "#551a8b"

// LocalSite is the site identifier used for pages without a hostname
// (local files opened through the browser, non-URL contexts).
const LocalSite = "local"

// SiteSetting holds per-site overrides. Absent fields inherit the global
// value: a nil Enabled means "follow the global switch", an empty
// VisitedColor means "use the global color".
type SiteSetting struct {
	Enabled      *bool  `json:"enabled,omitempty"`
	VisitedColor string `json:"visitedColor,omitempty"`
}

// IsZero reports whether the entry carries no override at all.
// Zero entries are dropped from the settings record on merge.
func (s SiteSetting) IsZero() bool {
	return s.Enabled == nil && s.VisitedColor == ""
}

// Settings is the single persisted settings record.
type Settings struct {
	Enabled      bool                   `json:"enabled"`
	VisitedColor string                 `json:"visitedColor"`
	SiteSettings map[string]SiteSetting `json:"siteSettings"`
}

// EffectiveSettings is the resolved enabled/color pair for one site.
// Derived on demand, never persisted.
type EffectiveSettings struct {
	Enabled      bool   `json:"enabled"`
	VisitedColor string `json:"visitedColor"`
}

// DefaultSettings returns the record written on first install.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		VisitedColor: DefaultVisitedColor,
		SiteSettings: map[string]SiteSetting{},
	}
}

// Normalize repairs a record read from storage so the invariants hold:
// VisitedColor and SiteSettings are always defined.
func (s *Settings) Normalize() {
	if s.VisitedColor == "" {
		s.VisitedColor = DefaultVisitedColor
	}
	if s.SiteSettings == nil {
		s.SiteSettings = map[string]SiteSetting{}
	}
}

// Clone returns a deep copy. Callers hand copies across goroutine
// boundaries so the coordinator's authoritative record is never aliased.
func (s Settings) Clone() Settings {
	out := s
	out.SiteSettings = make(map[string]SiteSetting, len(s.SiteSettings))
	for site, entry := range s.SiteSettings {
		if entry.Enabled != nil {
			v := *entry.Enabled
			entry.Enabled = &v
		}
		out.SiteSettings[site] = entry
	}
	return out
}

// SettingsPatch is a partial settings record for merge operations.
// Nil fields are left untouched; site entries that come out empty after
// merging are removed from the record (inherit global), matching the
// "release the custom color toggle" behavior.
type SettingsPatch struct {
	Enabled      *bool                   `json:"enabled,omitempty"`
	VisitedColor *string                 `json:"visitedColor,omitempty"`
	SiteSettings map[string]*SiteSetting `json:"siteSettings,omitempty"`
}

// Apply merges the patch into a copy of base and returns it.
// A nil pointer in the SiteSettings map deletes that site's entry.
func (p SettingsPatch) Apply(base Settings) Settings {
	out := base.Clone()
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.VisitedColor != nil {
		out.VisitedColor = *p.VisitedColor
	}
	for site, entry := range p.SiteSettings {
		if entry == nil || entry.IsZero() {
			delete(out.SiteSettings, site)
			continue
		}
		out.SiteSettings[site] = *entry
	}
	out.Normalize()
	return out
}

// IsZero reports whether the patch changes nothing.
func (p SettingsPatch) IsZero() bool {
	return p.Enabled == nil && p.VisitedColor == nil && len(p.SiteSettings) == 0
}
