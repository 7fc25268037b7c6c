package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/bnema/linktint/internal/bridge"
)

// styleElementID is the id of the single managed <style> element. Every
// application replaces its contents, so exactly one sheet is active per
// tab at any time.
const styleElementID = "__linktint-style"

// styleScript installs or replaces the managed style element. The %s
// placeholder receives the CSS as a JSON string literal.
const styleScript = `(function() {
  var css = %s;
  var el = document.getElementById('%s');
  if (!el) {
    el = document.createElement('style');
    el.id = '%s';
    (document.head || document.documentElement).appendChild(el);
  }
  el.textContent = css;
})();`

// ApplyStyleSheet implements port.StyleApplier.
func (b *Browser) ApplyStyleSheet(ctx context.Context, tabID, css string) error {
	quoted, err := json.Marshal(css)
	if err != nil {
		return fmt.Errorf("encode style sheet: %w", err)
	}
	script := fmt.Sprintf(styleScript, quoted, styleElementID, styleElementID)
	return b.evaluate(ctx, tabID, script, nil)
}

// NotifySettingsChanged implements port.PageMessenger.
func (b *Browser) NotifySettingsChanged(ctx context.Context, tabID string) error {
	return b.evaluate(ctx, tabID, bridge.NotifySettingsChangedScript, nil)
}

// PingPage implements port.PageMessenger.
func (b *Browser) PingPage(ctx context.Context, tabID string) error {
	var res string
	if err := b.evaluate(ctx, tabID, bridge.PingScript, &res); err != nil {
		return err
	}
	if res != "pong" {
		return fmt.Errorf("bridge not present in tab %s", tabID)
	}
	return nil
}

// evaluate runs a script in the tab's page world. The caller's context
// bounds the round-trip; the session context scopes it to the target.
func (b *Browser) evaluate(ctx context.Context, tabID, script string, out interface{}) error {
	s, err := b.session(tabID)
	if err != nil {
		return err
	}

	runCtx, cancel := mergeContexts(s.ctx, ctx)
	defer cancel()

	if out == nil {
		// Discard the result; chromedp errors on undefined results when
		// a receiver is supplied.
		return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
	}
	return chromedp.Run(runCtx, chromedp.Evaluate(script, out))
}

// mergeContexts derives the session context, cancelled when the caller's
// context ends.
func mergeContexts(session, caller context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(session)
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
