// Package coordinator owns the authoritative in-memory settings copy and
// drives injection across all open tabs in response to lifecycle events,
// message requests, and external settings changes.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/application/usecase"
	"github.com/bnema/linktint/internal/bridge"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/service"
	"github.com/bnema/linktint/internal/domain/validation"
	"github.com/bnema/linktint/internal/injector"
	"github.com/bnema/linktint/internal/logging"
)

// DefaultRetryDelay is the fixed pause before the one extra injection
// attempt on a loading tab. A heuristic for late-painting content; the
// bridge's mutation observer is the reliable fallback.
const DefaultRetryDelay = 50 * time.Millisecond

// ErrInvalidColor rejects updates carrying malformed hex colors. The
// previous value stays in effect.
var ErrInvalidColor = errors.New("invalid hex color")

// ErrPersistFailed reports that the merged record could not be written.
var ErrPersistFailed = errors.New("failed to persist settings")

// Coordinator is the daemon-wide singleton tying store, browser, and
// injector together.
type Coordinator struct {
	store      *usecase.SettingsStore
	browser    port.Browser
	inject     *injector.Injector
	retryDelay time.Duration

	mu        sync.RWMutex
	settings  entity.Settings
	activeTab port.Tab
}

// New creates a coordinator. retryDelay <= 0 selects DefaultRetryDelay.
func New(store *usecase.SettingsStore, browser port.Browser, retryDelay time.Duration) *Coordinator {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	c := &Coordinator{
		store:      store,
		browser:    browser,
		retryDelay: retryDelay,
	}
	c.inject = injector.New(browser, browser, c)
	return c
}

// Current implements injector.SettingsSource with a defensive copy.
func (c *Coordinator) Current() entity.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Clone()
}

// Start loads settings (writing defaults on first run), then runs the
// event loop until ctx ends. external carries records reloaded after
// out-of-process writes; pass nil when the store backend cannot watch.
func (c *Coordinator) Start(ctx context.Context, external <-chan entity.Settings) {
	log := logging.FromContext(ctx).With().Str("component", "coordinator").Logger()
	ctx = logging.WithContext(ctx, log)

	if !c.store.Exists(ctx) {
		if !c.store.Set(ctx, entity.DefaultSettings()) {
			log.Warn().Msg("failed to write default settings on first run")
		} else {
			log.Info().Msg("wrote default settings on first run")
		}
	}

	c.mu.Lock()
	c.settings = c.store.Get(ctx)
	c.mu.Unlock()
	log.Info().Msg("settings loaded")

	// Color every tab that is already open.
	c.sweep(ctx)

	events := c.browser.Events()
	bridgeReqs := c.browser.BridgeRequests()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				log.Info().Msg("browser event stream closed")
				return
			}
			c.onTabEvent(ctx, ev)
		case req, ok := <-bridgeReqs:
			if !ok {
				return
			}
			c.onBridgeRequest(ctx, req)
		case settings, ok := <-external:
			if !ok {
				external = nil
				continue
			}
			c.onExternalChange(ctx, settings)
		}
	}
}

// GetSettings returns the in-memory copy.
func (c *Coordinator) GetSettings() entity.Settings {
	return c.Current()
}

// UpdateSettings validates and merges a partial record, persists it,
// broadcasts the change to all eligible tabs, and re-runs injection
// everywhere. The most recent call's data wins.
func (c *Coordinator) UpdateSettings(ctx context.Context, patch entity.SettingsPatch) error {
	log := logging.FromContext(ctx).With().Str("component", "coordinator").Logger()

	if errs := validatePatch(patch); len(errs) > 0 {
		log.Debug().Strs("errors", errs).Msg("rejecting settings update")
		return fmt.Errorf("%w: %s", ErrInvalidColor, errs[0])
	}

	c.mu.Lock()
	merged, persisted := c.store.Merge(ctx, patch)
	c.settings = merged
	c.mu.Unlock()

	if !persisted {
		// Memory already advanced: the next write retries persistence,
		// and the session keeps behaving as the user asked.
		log.Warn().Msg("settings merged in memory but not persisted")
	}

	c.broadcast(ctx)
	c.sweep(ctx)

	if !persisted {
		return ErrPersistFailed
	}
	return nil
}

// InjectTab forces (re)injection for one tab.
func (c *Coordinator) InjectTab(ctx context.Context, tabID string) bool {
	return c.inject.Apply(ctx, tabID)
}

// ActiveTab returns the most recently created or activated tab and the
// site identifier derived from its URL.
func (c *Coordinator) ActiveTab() (port.Tab, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeTab, service.SiteID(c.activeTab.URL)
}

func (c *Coordinator) onTabEvent(ctx context.Context, ev port.TabEvent) {
	if ev.Kind == port.TabCreated || ev.Kind == port.TabActivated {
		c.mu.Lock()
		c.activeTab = ev.Tab
		c.mu.Unlock()
	}

	if !injector.IsEligible(ev.Tab.URL) {
		return
	}
	c.inject.Apply(ctx, ev.Tab.ID)

	if ev.Kind == port.TabLoading {
		// One extra attempt to catch content that appears after the
		// initial paint. Best effort only; the timer outliving a
		// shutdown just fires into a dead context.
		tabID := ev.Tab.ID
		time.AfterFunc(c.retryDelay, func() {
			if ctx.Err() != nil {
				return
			}
			c.inject.Apply(ctx, tabID)
		})
	}
}

func (c *Coordinator) onBridgeRequest(ctx context.Context, req port.BridgeRequest) {
	log := logging.FromContext(ctx).With().Str("component", "coordinator").Str("tab_id", req.TabID).Logger()
	switch req.Action {
	case bridge.ActionInjectCSS:
		c.inject.Apply(ctx, req.TabID)
	case bridge.ActionPing:
		log.Debug().Msg("bridge ping")
	}
}

// onExternalChange replaces the in-memory copy after an out-of-process
// write and notifies the bridges. No full sweep: each bridge requests
// its own re-injection, which avoids double work during sync bursts.
func (c *Coordinator) onExternalChange(ctx context.Context, settings entity.Settings) {
	log := logging.FromContext(ctx).With().Str("component", "coordinator").Logger()

	settings.Normalize()
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()

	log.Info().Msg("settings replaced from external change")
	c.broadcast(ctx)
}

// broadcast notifies every eligible tab's bridge that settings changed.
// Tabs whose bridge does not answer a ping get styled directly instead.
// Per-tab failures are ignored.
func (c *Coordinator) broadcast(ctx context.Context) {
	log := logging.FromContext(ctx)

	tabs, err := c.browser.Tabs(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("broadcast skipped, cannot list tabs")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tab := range tabs {
		if !injector.IsEligible(tab.URL) {
			continue
		}
		g.Go(func() error {
			if err := c.browser.PingPage(gctx, tab.ID); err != nil {
				log.Debug().Err(err).Str("tab_id", tab.ID).Msg("bridge not responding, injecting directly")
				c.inject.Apply(gctx, tab.ID)
				return nil
			}
			if err := c.browser.NotifySettingsChanged(gctx, tab.ID); err != nil {
				log.Debug().Err(err).Str("tab_id", tab.ID).Msg("settings-changed notification failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// sweep re-runs injection across all open tabs concurrently and waits
// for every attempt to finish. Individual failures never abort the
// sweep.
func (c *Coordinator) sweep(ctx context.Context) {
	log := logging.FromContext(ctx)

	tabs, err := c.browser.Tabs(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("sweep skipped, cannot list tabs")
		return
	}

	g := new(errgroup.Group)
	for _, tab := range tabs {
		if !injector.IsEligible(tab.URL) {
			continue
		}
		g.Go(func() error {
			c.inject.Apply(ctx, tab.ID)
			return nil
		})
	}
	_ = g.Wait()
}

func validatePatch(patch entity.SettingsPatch) []string {
	global := ""
	if patch.VisitedColor != nil {
		global = *patch.VisitedColor
	}
	siteColors := make(map[string]string, len(patch.SiteSettings))
	for site, entry := range patch.SiteSettings {
		if entry != nil && entry.VisitedColor != "" {
			siteColors[site] = entry.VisitedColor
		}
	}
	errs := validation.ValidateSettingsColors(global, siteColors)
	if patch.VisitedColor != nil && *patch.VisitedColor == "" {
		errs = append(errs, "visitedColor must not be empty")
	}
	return errs
}
