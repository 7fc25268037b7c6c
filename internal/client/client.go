// Package client wraps the message API round-trip for the popup and the
// settings CLI verbs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/linktint/internal/domain/entity"
)

// Client talks to a running linktint daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the daemon at baseURL
// (e.g. http://127.0.0.1:7641).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type message struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data,omitempty"`
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// GetSettings fetches the daemon's current settings record.
func (c *Client) GetSettings(ctx context.Context) (entity.Settings, error) {
	resp, err := c.send(ctx, message{Action: "getSettings"})
	if err != nil {
		return entity.Settings{}, err
	}
	var settings entity.Settings
	if err := json.Unmarshal(resp.Data, &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

// UpdateSettings merges a partial record and returns the merged result.
func (c *Client) UpdateSettings(ctx context.Context, patch entity.SettingsPatch) (entity.Settings, error) {
	resp, err := c.send(ctx, message{Action: "updateSettings", Data: patch})
	if err != nil {
		return entity.Settings{}, err
	}
	var settings entity.Settings
	if err := json.Unmarshal(resp.Data, &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

// InjectCSS forces re-injection for one tab.
func (c *Client) InjectCSS(ctx context.Context, tabID string) error {
	_, err := c.send(ctx, message{Action: "injectCSS", Data: map[string]string{"tabId": tabID}})
	return err
}

// ActiveTab reports the daemon's view of the currently active tab.
func (c *Client) ActiveTab(ctx context.Context) (tabID, url, site string, err error) {
	resp, err := c.send(ctx, message{Action: "getActiveTab"})
	if err != nil {
		return "", "", "", err
	}
	var data struct {
		TabID string `json:"tabId"`
		URL   string `json:"url"`
		Site  string `json:"site"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", "", "", fmt.Errorf("decode active tab: %w", err)
	}
	return data.TabID, data.URL, data.Site, nil
}

// Ping checks daemon liveness.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, message{Action: "ping"})
	return err
}

func (c *Client) send(ctx context.Context, msg message) (*response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daemon unreachable: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	var resp response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s failed: %s", msg.Action, resp.Error)
	}
	return &resp, nil
}
