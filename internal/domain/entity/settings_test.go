package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.Enabled)
	assert.Equal(t, DefaultVisitedColor, s.VisitedColor)
	require.NotNil(t, s.SiteSettings)
	assert.Empty(t, s.SiteSettings)
}

func TestDefaultSettings_JSONShape(t *testing.T) {
	data, err := json.Marshal(DefaultSettings())
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"visitedColor":"#551a8b","siteSettings":{}}`, string(data))
}

func TestSettings_Normalize(t *testing.T) {
	s := Settings{Enabled: true}
	s.Normalize()
	assert.Equal(t, DefaultVisitedColor, s.VisitedColor)
	require.NotNil(t, s.SiteSettings)

	// Existing values are kept.
	s2 := Settings{VisitedColor: "#abc", SiteSettings: map[string]SiteSetting{"a.com": {VisitedColor: "#fff"}}}
	s2.Normalize()
	assert.Equal(t, "#abc", s2.VisitedColor)
	assert.Len(t, s2.SiteSettings, 1)
}

func TestSettings_Clone(t *testing.T) {
	orig := Settings{
		Enabled:      true,
		VisitedColor: "#551a8b",
		SiteSettings: map[string]SiteSetting{
			"a.com": {Enabled: boolPtr(false), VisitedColor: "#fff"},
		},
	}

	clone := orig.Clone()
	require.Equal(t, orig, clone)

	// Mutating the clone must not touch the original.
	clone.SiteSettings["b.com"] = SiteSetting{VisitedColor: "#000"}
	*clone.SiteSettings["a.com"].Enabled = true

	assert.NotContains(t, orig.SiteSettings, "b.com")
	assert.False(t, *orig.SiteSettings["a.com"].Enabled)
}

func TestSettingsPatch_Apply(t *testing.T) {
	base := Settings{
		Enabled:      true,
		VisitedColor: "#551a8b",
		SiteSettings: map[string]SiteSetting{
			"keep.com":   {VisitedColor: "#111111"},
			"delete.com": {Enabled: boolPtr(false)},
		},
	}

	patch := SettingsPatch{
		Enabled:      boolPtr(false),
		VisitedColor: strPtr("#fff"),
		SiteSettings: map[string]*SiteSetting{
			"delete.com": nil,
			"new.com":    {VisitedColor: "#222222"},
		},
	}

	out := patch.Apply(base)

	assert.False(t, out.Enabled)
	assert.Equal(t, "#fff", out.VisitedColor)
	assert.Contains(t, out.SiteSettings, "keep.com")
	assert.Contains(t, out.SiteSettings, "new.com")
	assert.NotContains(t, out.SiteSettings, "delete.com")

	// Base is untouched.
	assert.True(t, base.Enabled)
	assert.Contains(t, base.SiteSettings, "delete.com")
}

func TestSettingsPatch_Apply_EmptyEntryDeletes(t *testing.T) {
	base := Settings{
		Enabled:      true,
		VisitedColor: "#551a8b",
		SiteSettings: map[string]SiteSetting{
			"a.com": {Enabled: boolPtr(true), VisitedColor: "#fff"},
		},
	}

	// Releasing every override leaves a zero entry, which is dropped so
	// the site inherits the global settings again.
	out := SettingsPatch{
		SiteSettings: map[string]*SiteSetting{"a.com": {}},
	}.Apply(base)

	assert.NotContains(t, out.SiteSettings, "a.com")
}

func TestSettingsPatch_Apply_EntryReplaces(t *testing.T) {
	base := Settings{
		Enabled:      true,
		VisitedColor: "#551a8b",
		SiteSettings: map[string]SiteSetting{
			"a.com": {Enabled: boolPtr(false), VisitedColor: "#fff"},
		},
	}

	// A patched entry replaces the stored one wholesale: dropping the
	// color while keeping the switch requires carrying the switch over.
	out := SettingsPatch{
		SiteSettings: map[string]*SiteSetting{"a.com": {Enabled: boolPtr(false)}},
	}.Apply(base)

	entry := out.SiteSettings["a.com"]
	require.NotNil(t, entry.Enabled)
	assert.False(t, *entry.Enabled)
	assert.Empty(t, entry.VisitedColor)
}

func TestSettingsPatch_IsZero(t *testing.T) {
	assert.True(t, SettingsPatch{}.IsZero())
	assert.False(t, SettingsPatch{Enabled: boolPtr(true)}.IsZero())
	assert.False(t, SettingsPatch{VisitedColor: strPtr("#fff")}.IsZero())
	assert.False(t, SettingsPatch{SiteSettings: map[string]*SiteSetting{"a.com": nil}}.IsZero())
}

func TestSiteSetting_IsZero(t *testing.T) {
	assert.True(t, SiteSetting{}.IsZero())
	assert.False(t, SiteSetting{Enabled: boolPtr(false)}.IsZero())
	assert.False(t, SiteSetting{VisitedColor: "#fff"}.IsZero())
}
