package injector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/linktint/internal/application/port"
	"github.com/bnema/linktint/internal/domain/entity"
)

func TestIsEligible(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"HTTPS page", "https://example.com", true},
		{"HTTP page", "http://example.com/path", true},
		{"Localhost", "http://localhost:3000", true},

		{"Empty URL", "", false},
		{"Whitespace URL", "   ", false},
		{"No scheme", "example.com", false},
		{"Chrome internal", "chrome://settings", false},
		{"Extension page", "chrome-extension://abcdef/popup.html", false},
		{"Untrusted internal", "chrome-untrusted://new-tab-page", false},
		{"Edge internal", "edge://settings", false},
		{"About page", "about:blank", false},
		{"Devtools", "devtools://devtools/bundled/inspector.html", false},
		{"View source", "view-source:https://example.com", false},
		{"Local file", "file:///home/user/index.html", false},
		{"Data URL", "data:text/html,<p>hi</p>", false},
		{"Blob URL", "blob:https://example.com/uuid", false},
		{"Uppercase scheme", "CHROME://settings", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEligible(tt.url); got != tt.expected {
				t.Errorf("IsEligible(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

type fakeTabs struct {
	tabs map[string]port.Tab
}

func (f *fakeTabs) Tabs(context.Context) ([]port.Tab, error) {
	out := make([]port.Tab, 0, len(f.tabs))
	for _, tab := range f.tabs {
		out = append(out, tab)
	}
	return out, nil
}

func (f *fakeTabs) Tab(_ context.Context, id string) (port.Tab, error) {
	tab, ok := f.tabs[id]
	if !ok {
		return port.Tab{}, errors.New("no such tab")
	}
	return tab, nil
}

type fakeStyles struct {
	applied map[string]string // tabID -> last sheet
	err     error
}

func (f *fakeStyles) ApplyStyleSheet(_ context.Context, tabID, sheet string) error {
	if f.err != nil {
		return f.err
	}
	if f.applied == nil {
		f.applied = map[string]string{}
	}
	f.applied[tabID] = sheet
	return nil
}

type staticSettings struct {
	settings entity.Settings
}

func (s staticSettings) Current() entity.Settings { return s.settings }

func TestInjector_AppliesSiteColor(t *testing.T) {
	tabs := &fakeTabs{tabs: map[string]port.Tab{
		"t1": {ID: "t1", URL: "https://news.example.com/story"},
	}}
	styles := &fakeStyles{}
	settings := entity.DefaultSettings()
	settings.SiteSettings["news.example.com"] = entity.SiteSetting{VisitedColor: "#ff0000"}

	inj := New(tabs, styles, staticSettings{settings})
	require.True(t, inj.Apply(context.Background(), "t1"))

	sheet := styles.applied["t1"]
	assert.Contains(t, sheet, "#ff0000")
	assert.NotContains(t, sheet, entity.DefaultVisitedColor)
}

func TestInjector_DisabledAppliesReset(t *testing.T) {
	tabs := &fakeTabs{tabs: map[string]port.Tab{
		"t1": {ID: "t1", URL: "https://example.com"},
	}}
	styles := &fakeStyles{}
	settings := entity.DefaultSettings()
	settings.Enabled = false

	inj := New(tabs, styles, staticSettings{settings})
	require.True(t, inj.Apply(context.Background(), "t1"))

	assert.True(t, strings.Contains(styles.applied["t1"], "unset"))
}

func TestInjector_PrivilegedTabIsNoOp(t *testing.T) {
	tabs := &fakeTabs{tabs: map[string]port.Tab{
		"t1": {ID: "t1", URL: "chrome://settings"},
	}}
	styles := &fakeStyles{}

	inj := New(tabs, styles, staticSettings{entity.DefaultSettings()})
	assert.False(t, inj.Apply(context.Background(), "t1"))
	assert.Empty(t, styles.applied)
}

func TestInjector_MissingTabIsNoOp(t *testing.T) {
	inj := New(&fakeTabs{}, &fakeStyles{}, staticSettings{entity.DefaultSettings()})
	assert.False(t, inj.Apply(context.Background(), "gone"))
}

func TestInjector_StyleFailureSwallowed(t *testing.T) {
	tabs := &fakeTabs{tabs: map[string]port.Tab{
		"t1": {ID: "t1", URL: "https://example.com"},
	}}
	inj := New(tabs, &fakeStyles{err: errors.New("tab closed")}, staticSettings{entity.DefaultSettings()})
	assert.False(t, inj.Apply(context.Background(), "t1"))
}
