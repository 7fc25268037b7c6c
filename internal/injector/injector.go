// Package injector applies the visited-link style sheet to individual
// tabs, gated by a scheme eligibility check.
package injector

import (
	"context"
	"net/url"
	"strings"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/css"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/service"
	"github.com/bnema/linktint/internal/logging"
)

// ineligibleSchemes are browser-internal or privileged contexts that
// must never receive script or style injection.
var ineligibleSchemes = map[string]struct{}{
	"chrome":           {},
	"chrome-extension": {},
	"chrome-untrusted": {},
	"edge":             {},
	"about":            {},
	"devtools":         {},
	"view-source":      {},
	"file":             {},
	"data":             {},
	"blob":             {},
}

// IsEligible reports whether a page at rawURL may be styled.
func IsEligible(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return false
	}
	_, privileged := ineligibleSchemes[scheme]
	return !privileged
}

// SettingsSource yields the record injection decisions are made from.
// The coordinator provides its in-memory copy.
type SettingsSource interface {
	Current() entity.Settings
}

// Injector applies effective settings to tabs. Failures are swallowed:
// injection is best-effort and a closed or unscriptable tab is normal.
type Injector struct {
	tabs     port.TabQuerier
	styles   port.StyleApplier
	settings SettingsSource
}

// New creates a page injector.
func New(tabs port.TabQuerier, styles port.StyleApplier, settings SettingsSource) *Injector {
	return &Injector{tabs: tabs, styles: styles, settings: settings}
}

// Apply resolves and applies the style sheet for one tab. The returned
// bool reports whether a style operation was attempted at all; errors
// are never returned.
func (i *Injector) Apply(ctx context.Context, tabID string) bool {
	log := logging.FromContext(ctx).With().Str("component", "injector").Str("tab_id", tabID).Logger()

	tab, err := i.tabs.Tab(ctx, tabID)
	if err != nil {
		log.Debug().Err(err).Msg("tab lookup failed, skipping injection")
		return false
	}
	if !IsEligible(tab.URL) {
		log.Debug().Str("url", tab.URL).Msg("tab not eligible for injection")
		return false
	}

	settings := i.settings.Current()
	site := service.SiteID(tab.URL)
	eff := service.Resolve(settings, site)

	sheet := css.GenerateReset()
	if eff.Enabled {
		sheet = css.Generate(eff.VisitedColor)
	}

	if err := i.styles.ApplyStyleSheet(ctx, tabID, sheet); err != nil {
		log.Debug().Err(err).Str("site", site).Msg("style application failed")
		return false
	}
	log.Debug().Str("site", site).Bool("enabled", eff.Enabled).Str("color", eff.VisitedColor).Msg("style sheet applied")
	return true
}
