// Package service holds pure domain logic with no I/O.
package service

import "github.com/bnema/linktint/internal/domain/entity"

// Resolve computes the effective settings for one site.
//
// Enabled is the global switch ANDed with the site override when one is
// present; VisitedColor is the site override when set, else the global
// color. A missing SiteSettings map, a missing site entry, or an entry
// missing either field all mean "inherit global" for that field.
func Resolve(settings entity.Settings, siteID string) entity.EffectiveSettings {
	eff := entity.EffectiveSettings{
		Enabled:      settings.Enabled,
		VisitedColor: settings.VisitedColor,
	}

	entry, ok := settings.SiteSettings[siteID]
	if !ok {
		return eff
	}

	if entry.Enabled != nil {
		eff.Enabled = settings.Enabled && *entry.Enabled
	}
	if entry.VisitedColor != "" {
		eff.VisitedColor = entry.VisitedColor
	}

	return eff
}

// SiteID extracts the site identifier from a page URL: the hostname, or
// entity.LocalSite when the URL has none (file pages, non-URL contexts).
func SiteID(rawURL string) string {
	host := hostnameOf(rawURL)
	if host == "" {
		return entity.LocalSite
	}
	return host
}
