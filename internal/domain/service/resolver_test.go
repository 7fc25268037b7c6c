package service

import (
	"testing"

	"github.com/bnema/linktint/internal/domain/entity"
)

func boolPtr(v bool) *bool { return &v }

func TestResolve(t *testing.T) {
	base := entity.Settings{
		Enabled:      true,
		VisitedColor: "#551a8b",
		SiteSettings: map[string]entity.SiteSetting{
			"colored.example":  {VisitedColor: "#ff0000"},
			"disabled.example": {Enabled: boolPtr(false)},
			"both.example":     {Enabled: boolPtr(true), VisitedColor: "#00ff00"},
		},
	}

	tests := []struct {
		name        string
		settings    entity.Settings
		site        string
		wantEnabled bool
		wantColor   string
	}{
		{"No override inherits global", base, "plain.example", true, "#551a8b"},
		{"Color override keeps global enabled", base, "colored.example", true, "#ff0000"},
		{"Site disabled wins over global enabled", base, "disabled.example", false, "#551a8b"},
		{"Full override", base, "both.example", true, "#00ff00"},
		{
			"Global disabled gates site enabled",
			entity.Settings{Enabled: false, VisitedColor: "#551a8b", SiteSettings: map[string]entity.SiteSetting{
				"both.example": {Enabled: boolPtr(true), VisitedColor: "#00ff00"},
			}},
			"both.example",
			false, "#00ff00",
		},
		{
			"Nil site map inherits global",
			entity.Settings{Enabled: true, VisitedColor: "#123456"},
			"anything.example",
			true, "#123456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := Resolve(tt.settings, tt.site)
			if eff.Enabled != tt.wantEnabled {
				t.Errorf("Resolve(%s).Enabled = %v, want %v", tt.site, eff.Enabled, tt.wantEnabled)
			}
			if eff.VisitedColor != tt.wantColor {
				t.Errorf("Resolve(%s).VisitedColor = %q, want %q", tt.site, eff.VisitedColor, tt.wantColor)
			}
		})
	}
}

func TestSiteID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"HTTPS URL", "https://example.com/path", "example.com"},
		{"Subdomain", "https://news.example.com", "news.example.com"},
		{"Port stripped", "http://localhost:8080/x", "localhost"},
		{"File URL", "file:///home/user/page.html", entity.LocalSite},
		{"Empty URL", "", entity.LocalSite},
		{"About page", "about:blank", entity.LocalSite},
		{"Garbage", "::::", entity.LocalSite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SiteID(tt.url); got != tt.expected {
				t.Errorf("SiteID(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}
