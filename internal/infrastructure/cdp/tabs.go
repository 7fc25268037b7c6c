package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/bridge"
	"github.com/bnema/linktint/internal/logging"
)

// tabSession is one attached page target: its own chromedp context plus
// the last URL seen, used to tell navigations from focus changes.
type tabSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	lastURL string
}

// attach creates a session for a page target, installs the bridge, and
// wires per-target event listeners. announce controls whether a
// TabCreated event is emitted (suppressed for pre-existing tabs found at
// connect time, which get a TabLoaded instead so they are swept once).
func (b *Browser) attach(info *target.Info, announce bool) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if _, exists := b.sessions[info.TargetID]; exists {
		b.mu.Unlock()
		return
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx, chromedp.WithTargetID(info.TargetID))
	s := &tabSession{ctx: tabCtx, cancel: tabCancel, lastURL: info.URL}
	b.sessions[info.TargetID] = s
	b.mu.Unlock()

	tabID := string(info.TargetID)
	log := logging.FromContext(tabCtx).With().Str("component", "cdp").Str("tab_id", tabID).Logger()

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame.ParentID != "" {
				return
			}
			b.mu.Lock()
			if sess, ok := b.sessions[info.TargetID]; ok {
				sess.lastURL = e.Frame.URL
			}
			b.mu.Unlock()
			b.emit(port.TabEvent{Kind: port.TabLoading, Tab: port.Tab{ID: tabID, URL: e.Frame.URL}})
		case *page.EventLoadEventFired:
			b.emit(port.TabEvent{Kind: port.TabLoaded, Tab: b.snapshot(info.TargetID)})
		case *runtime.EventBindingCalled:
			if e.Name != bridge.BindingName {
				return
			}
			action, err := bridge.DecodeRequest(e.Payload)
			if err != nil {
				log.Debug().Err(err).Msg("dropping malformed bridge request")
				return
			}
			b.emitBridge(port.BridgeRequest{TabID: tabID, Action: action})
		}
	})

	// Bridge installation: the binding first, then the page script for
	// future documents, then the script in the live document (pages that
	// existed before we attached never saw the document-start hook).
	go func() {
		err := chromedp.Run(tabCtx,
			runtime.AddBinding(bridge.BindingName),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := page.AddScriptToEvaluateOnNewDocument(bridge.PageScript()).Do(ctx)
				return err
			}),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, exp, err := runtime.Evaluate(bridge.PageScript()).Do(ctx)
				if err != nil {
					return err
				}
				if exp != nil {
					return exp
				}
				return nil
			}),
		)
		if err != nil {
			// Privileged targets reject attachment; the injector's
			// eligibility gate keeps us away from them anyway.
			log.Debug().Err(err).Msg("bridge installation failed")
			return
		}
		if announce {
			b.emit(port.TabEvent{Kind: port.TabCreated, Tab: port.Tab{ID: tabID, URL: info.URL}})
		} else {
			b.emit(port.TabEvent{Kind: port.TabLoaded, Tab: port.Tab{ID: tabID, URL: info.URL}})
		}
	}()
}

// onInfoChanged approximates activation: an info change that does not
// move the URL is treated as the tab coming to the foreground. URL moves
// are covered by the per-target frame events.
func (b *Browser) onInfoChanged(info *target.Info) {
	b.mu.Lock()
	s, ok := b.sessions[info.TargetID]
	if !ok {
		b.mu.Unlock()
		b.attach(info, true)
		return
	}
	changed := s.lastURL != info.URL
	s.lastURL = info.URL
	b.mu.Unlock()

	if !changed {
		b.emit(port.TabEvent{Kind: port.TabActivated, Tab: port.Tab{ID: string(info.TargetID), URL: info.URL}})
	}
}

func (b *Browser) detach(id target.ID) {
	b.mu.Lock()
	s, ok := b.sessions[id]
	if ok {
		delete(b.sessions, id)
	}
	b.mu.Unlock()
	if ok {
		s.cancel()
	}
}

// snapshot returns the current Tab view for a session.
func (b *Browser) snapshot(id target.ID) port.Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := port.Tab{ID: string(id)}
	if s, ok := b.sessions[id]; ok {
		t.URL = s.lastURL
	}
	return t
}

// Tabs implements port.TabQuerier.
func (b *Browser) Tabs(_ context.Context) ([]port.Tab, error) {
	infos, err := chromedp.Targets(b.browserCtx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	tabs := make([]port.Tab, 0, len(infos))
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		tabs = append(tabs, port.Tab{ID: string(info.TargetID), URL: info.URL})
	}
	return tabs, nil
}

// Tab implements port.TabQuerier.
func (b *Browser) Tab(ctx context.Context, id string) (port.Tab, error) {
	tabs, err := b.Tabs(ctx)
	if err != nil {
		return port.Tab{}, err
	}
	for _, t := range tabs {
		if t.ID == id {
			return t, nil
		}
	}
	return port.Tab{}, fmt.Errorf("tab %s not found", id)
}

// session returns the attached session for a tab, or an error when the
// tab is gone or never attached.
func (b *Browser) session(id string) (*tabSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[target.ID(id)]
	if !ok {
		return nil, fmt.Errorf("no session for tab %s", id)
	}
	return s, nil
}
