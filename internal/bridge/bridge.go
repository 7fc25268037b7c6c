// Package bridge carries the per-page script and decodes the requests it
// sends back over the host binding.
package bridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// BindingName is the function the host exposes to the page for
// bridge-to-daemon requests.
const BindingName = "__linktintBridge"

//go:embed script.js
var pageScript string

// PageScript returns the bridge script installed at document start.
func PageScript() string {
	return pageScript
}

// Request actions understood by the coordinator.
const (
	ActionInjectCSS = "injectCSS"
	ActionPing      = "ping"
)

type payload struct {
	Action string `json:"action"`
}

// DecodeRequest parses a binding payload into an action. Unknown and
// malformed payloads return an error; callers drop them.
func DecodeRequest(raw string) (string, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", fmt.Errorf("decode bridge payload: %w", err)
	}
	switch p.Action {
	case ActionInjectCSS, ActionPing:
		return p.Action, nil
	default:
		return "", fmt.Errorf("unknown bridge action: %q", p.Action)
	}
}

// NotifySettingsChangedScript is evaluated in a tab to tell its bridge
// that settings changed. The bridge turns it into a re-injection request.
const NotifySettingsChangedScript = `window.__linktint && window.__linktint.onSettingsChanged();`

// PingScript evaluates to "pong" when the bridge is alive.
const PingScript = `window.__linktint ? window.__linktint.ping() : ""`
