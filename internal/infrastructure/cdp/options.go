package cdp

// Options configures how the daemon reaches the host browser.
type Options struct {
	// RemoteURL attaches to an already-running browser's DevTools
	// endpoint (e.g. ws://127.0.0.1:9222). When empty, a browser is
	// launched with ProfileDir.
	RemoteURL string

	// ProfileDir is the user-data directory for a launched browser.
	ProfileDir string

	// Headless launches without a window. Only meaningful when
	// launching.
	Headless bool

	// ExecPath overrides the browser binary when launching.
	ExecPath string
}
