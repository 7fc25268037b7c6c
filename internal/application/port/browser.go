// Package port defines the interfaces the application core expects from
// the host browser. The cdp package provides the production
// implementation; tests substitute in-memory fakes.
package port

import "context"

// Tab identifies one browsing context in the host browser.
type Tab struct {
	ID  string
	URL string
}

// TabEventKind enumerates the lifecycle events the coordinator reacts to.
type TabEventKind string

const (
	TabCreated   TabEventKind = "created"
	TabActivated TabEventKind = "activated"
	// TabLoading fires when a navigation starts; the page may not have
	// painted yet.
	TabLoading TabEventKind = "loading"
	// TabLoaded fires when a navigation commits/completes.
	TabLoaded TabEventKind = "loaded"
)

// TabEvent is one tab lifecycle notification.
type TabEvent struct {
	Kind TabEventKind
	Tab  Tab
}

// BridgeRequest is a message sent from the page bridge back to the
// daemon through the host's binding channel.
type BridgeRequest struct {
	TabID string
	// Action is "injectCSS" for re-injection requests and "ping" for
	// liveness checks.
	Action string
}

// TabQuerier enumerates and resolves tabs.
type TabQuerier interface {
	Tabs(ctx context.Context) ([]Tab, error)
	Tab(ctx context.Context, id string) (Tab, error)
}

// StyleApplier installs or replaces the single managed style sheet on a
// tab. Consecutive calls replace, never accumulate.
type StyleApplier interface {
	ApplyStyleSheet(ctx context.Context, tabID, css string) error
}

// PageMessenger delivers daemon-to-page notifications.
type PageMessenger interface {
	// NotifySettingsChanged tells the page bridge that settings changed.
	NotifySettingsChanged(ctx context.Context, tabID string) error
	// PingPage checks that the bridge is alive in the given tab.
	PingPage(ctx context.Context, tabID string) error
}

// EventSource exposes the host's event streams. Both channels close when
// the browser connection ends.
type EventSource interface {
	Events() <-chan TabEvent
	BridgeRequests() <-chan BridgeRequest
}

// Browser is the full host surface the coordinator drives.
type Browser interface {
	TabQuerier
	StyleApplier
	PageMessenger
	EventSource
	Close() error
}
