// Package cdp drives the host browser over the Chrome DevTools protocol.
// It is the production implementation of the port.Browser surface.
package cdp

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/logging"
)

// Browser implements port.Browser on top of chromedp. One instance per
// daemon; it owns the allocator, the browser connection, and one attached
// session per page target.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[target.ID]*tabSession
	closed   bool

	events     chan port.TabEvent
	bridgeReqs chan port.BridgeRequest
}

// Connect attaches to (or launches) the host browser and starts target
// discovery. The returned Browser is ready to receive events.
func Connect(ctx context.Context, opts Options) (*Browser, error) {
	log := logging.FromContext(ctx).With().Str("component", "cdp").Logger()

	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if opts.RemoteURL != "" {
		log.Info().Str("url", opts.RemoteURL).Msg("attaching to running browser")
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		log.Info().Str("profile", opts.ProfileDir).Bool("headless", opts.Headless).Msg("launching browser")
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.UserDataDir(opts.ProfileDir),
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.Flag("headless", opts.Headless),
		)
		if opts.ExecPath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sessions:      make(map[target.ID]*tabSession),
		events:        make(chan port.TabEvent, 64),
		bridgeReqs:    make(chan port.BridgeRequest, 64),
	}

	chromedp.ListenBrowser(browserCtx, b.onBrowserEvent)

	// Starts the browser connection and turns on target discovery so
	// existing and future tabs surface as events.
	if err := chromedp.Run(browserCtx, target.SetDiscoverTargets(true)); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	// Attach to tabs that were already open before we connected.
	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list initial targets")
	} else {
		for _, info := range infos {
			if info.Type == "page" {
				b.attach(info, false)
			}
		}
	}

	return b, nil
}

// Events implements port.EventSource.
func (b *Browser) Events() <-chan port.TabEvent {
	return b.events
}

// BridgeRequests implements port.EventSource.
func (b *Browser) BridgeRequests() <-chan port.BridgeRequest {
	return b.bridgeReqs
}

// Close tears down all sessions and the browser connection.
func (b *Browser) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, s := range b.sessions {
		s.cancel()
		delete(b.sessions, id)
	}
	b.mu.Unlock()

	b.browserCancel()
	b.allocCancel()
	close(b.events)
	close(b.bridgeReqs)
	return nil
}

func (b *Browser) onBrowserEvent(ev interface{}) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		if e.TargetInfo.Type != "page" {
			return
		}
		b.attach(e.TargetInfo, true)
	case *target.EventTargetInfoChanged:
		if e.TargetInfo.Type != "page" {
			return
		}
		b.onInfoChanged(e.TargetInfo)
	case *target.EventTargetDestroyed:
		b.detach(e.TargetID)
	}
}

func (b *Browser) emit(ev port.TabEvent) {
	// Listener callbacks and attach goroutines can race Close, so the
	// closed check and the send share the lock. Lossy on overflow: a
	// missed lifecycle event costs one injection opportunity, and the
	// bridge requests re-injection anyway.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
	}
}

func (b *Browser) emitBridge(req port.BridgeRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.bridgeReqs <- req:
	default:
	}
}
