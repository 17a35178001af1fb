// Package client publishes events to a canal server over its HTTP API, for
// applications that do not talk to redis themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ClientOptions struct {
	// URL is the canal server base URL, e.g. "http://127.0.0.1:6750".
	URL string

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

type Client struct {
	url  string
	http *http.Client
}

func New(options ClientOptions) (*Client, error) {
	if options.URL == "" {
		return nil, errors.New("client: URL is required")
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{url: options.URL, http: httpClient}, nil
}

// Event mirrors the server's publish input. Data is required.
type Event struct {
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data"`
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Retry   int    `json:"retry,omitempty"`
}

// Send publishes event on its channel (server default "sse" when empty).
func (c *Client) Send(ctx context.Context, event *Event) error {
	return c.post(ctx, c.url+"/pub", event)
}

// Control sends a control command, e.g. "disconnect", to channel.
func (c *Client) Control(ctx context.Context, channel, command string) error {
	return c.post(ctx, c.url+"/control", map[string]string{
		"channel": channel,
		"command": command,
	})
}

func (c *Client) post(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("client: %s responded %d", url, res.StatusCode)
	}

	return nil
}
