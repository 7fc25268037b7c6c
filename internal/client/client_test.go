package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/linktint/internal/domain/entity"
)

// fakeDaemon answers the message endpoint with canned responses per
// action and records what it received.
func fakeDaemon(t *testing.T, responses map[string]string) (*Client, *[]string) {
	t.Helper()

	var actions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/message", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var msg struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		actions = append(actions, msg.Action)

		body, ok := responses[msg.Action]
		if !ok {
			body = `{"success":false,"error":"unknown action"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL), &actions
}

func TestClient_GetSettings(t *testing.T) {
	c, actions := fakeDaemon(t, map[string]string{
		"getSettings": `{"success":true,"data":{"enabled":true,"visitedColor":"#551a8b","siteSettings":{}}}`,
	})

	settings, err := c.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultSettings(), settings)
	assert.Equal(t, []string{"getSettings"}, *actions)
}

func TestClient_UpdateSettings(t *testing.T) {
	c, _ := fakeDaemon(t, map[string]string{
		"updateSettings": `{"success":true,"data":{"enabled":false,"visitedColor":"#fff","siteSettings":{}}}`,
	})

	enabled := false
	settings, err := c.UpdateSettings(context.Background(), entity.SettingsPatch{Enabled: &enabled})
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Equal(t, "#fff", settings.VisitedColor)
}

func TestClient_FailureResponse(t *testing.T) {
	c, _ := fakeDaemon(t, map[string]string{
		"updateSettings": `{"success":false,"error":"invalid hex color"}`,
	})

	color := "nope"
	_, err := c.UpdateSettings(context.Background(), entity.SettingsPatch{VisitedColor: &color})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hex color")
}

func TestClient_ActiveTab(t *testing.T) {
	c, _ := fakeDaemon(t, map[string]string{
		"getActiveTab": `{"success":true,"data":{"tabId":"t1","url":"https://example.com","site":"example.com"}}`,
	})

	tabID, url, site, err := c.ActiveTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", tabID)
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, "example.com", site)
}

func TestClient_Ping(t *testing.T) {
	c, _ := fakeDaemon(t, map[string]string{
		"ping": `{"success":true,"data":"pong"}`,
	})
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_DaemonUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon unreachable")
}
