package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/application/usecase"
	"github.com/bnema/linktint/internal/coordinator"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
)

type memRepo struct {
	mu     sync.Mutex
	record *entity.Settings
}

func (r *memRepo) Load(context.Context) (entity.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record == nil {
		return entity.Settings{}, repository.ErrNotFound
	}
	return r.record.Clone(), nil
}

func (r *memRepo) Save(_ context.Context, settings entity.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := settings.Clone()
	r.record = &clone
	return nil
}

func (r *memRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record = nil
	return nil
}

type stubBrowser struct {
	mu      sync.Mutex
	tabs    map[string]port.Tab
	applied map[string]int

	events     chan port.TabEvent
	bridgeReqs chan port.BridgeRequest
}

func newStubBrowser(tabs ...port.Tab) *stubBrowser {
	b := &stubBrowser{
		tabs:       map[string]port.Tab{},
		applied:    map[string]int{},
		events:     make(chan port.TabEvent),
		bridgeReqs: make(chan port.BridgeRequest),
	}
	for _, tab := range tabs {
		b.tabs[tab.ID] = tab
	}
	return b
}

func (b *stubBrowser) Tabs(context.Context) ([]port.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]port.Tab, 0, len(b.tabs))
	for _, tab := range b.tabs {
		out = append(out, tab)
	}
	return out, nil
}

func (b *stubBrowser) Tab(_ context.Context, id string) (port.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tab, ok := b.tabs[id]
	if !ok {
		return port.Tab{}, errors.New("tab not found")
	}
	return tab, nil
}

func (b *stubBrowser) ApplyStyleSheet(_ context.Context, tabID, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applied[tabID]++
	return nil
}

func (b *stubBrowser) NotifySettingsChanged(context.Context, string) error { return nil }

func (b *stubBrowser) PingPage(context.Context, string) error { return nil }

func (b *stubBrowser) Events() <-chan port.TabEvent { return b.events }

func (b *stubBrowser) BridgeRequests() <-chan port.BridgeRequest { return b.bridgeReqs }

func (b *stubBrowser) Close() error { return nil }

func newTestServer(t *testing.T, browser *stubBrowser) *Server {
	t.Helper()
	coord := coordinator.New(usecase.NewSettingsStore(&memRepo{}), browser, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go coord.Start(ctx, nil)

	require.Eventually(t, func() bool {
		return coord.GetSettings().VisitedColor == entity.DefaultVisitedColor
	}, time.Second, 5*time.Millisecond)

	return New(coord, "127.0.0.1:0")
}

func postMessage(t *testing.T, handler http.Handler, action string, data any) Response {
	t.Helper()

	msg := Message{Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Ping(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())
	resp := postMessage(t, srv.Handler(), "ping", nil)
	require.True(t, resp.Success)
	assert.Equal(t, "pong", resp.Data)
}

func TestServer_GetSettings(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())
	resp := postMessage(t, srv.Handler(), "getSettings", nil)
	require.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var settings entity.Settings
	require.NoError(t, json.Unmarshal(raw, &settings))
	assert.Equal(t, entity.DefaultSettings(), settings)
}

func TestServer_UpdateSettings(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())

	resp := postMessage(t, srv.Handler(), "updateSettings", map[string]any{"visitedColor": "#ff0000"})
	require.True(t, resp.Success)

	resp = postMessage(t, srv.Handler(), "getSettings", nil)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var settings entity.Settings
	require.NoError(t, json.Unmarshal(raw, &settings))
	assert.Equal(t, "#ff0000", settings.VisitedColor)
}

func TestServer_UpdateSettings_InvalidColor(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())

	resp := postMessage(t, srv.Handler(), "updateSettings", map[string]any{"visitedColor": "purple"})
	require.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid hex color")
}

func TestServer_InjectCSS(t *testing.T) {
	browser := newStubBrowser(port.Tab{ID: "t1", URL: "https://example.com"})
	srv := newTestServer(t, browser)

	resp := postMessage(t, srv.Handler(), "injectCSS", map[string]string{"tabId": "t1"})
	assert.True(t, resp.Success)

	resp = postMessage(t, srv.Handler(), "injectCSS", map[string]string{"tabId": "missing"})
	assert.False(t, resp.Success)
}

func TestServer_InjectCSS_RequiresTabID(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())
	resp := postMessage(t, srv.Handler(), "injectCSS", map[string]string{})
	require.False(t, resp.Success)
	assert.Equal(t, "tabId is required", resp.Error)
}

func TestServer_GetActiveTab(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())
	resp := postMessage(t, srv.Handler(), "getActiveTab", nil)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "tabId")
	assert.Contains(t, data, "site")
}

func TestServer_UnknownAction(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())
	resp := postMessage(t, srv.Handler(), "explode", nil)
	require.False(t, resp.Success)
	assert.Equal(t, "unknown action: explode", resp.Error)
}

func TestServer_MalformedBody(t *testing.T) {
	srv := newTestServer(t, newStubBrowser())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "malformed request body", resp.Error)
}
