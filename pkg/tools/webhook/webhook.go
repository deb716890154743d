// Package webhook forwards calendar events to an external automation
// endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/VladRad03/Adulter/pkg/tools"
)

// Options configures the webhook client.
type Options struct {
	URL        string
	HTTPClient *http.Client
}

// Client posts calendar events to a single configured webhook URL.
type Client struct {
	opts   Options
	client *http.Client
}

// New creates a webhook client.
func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{opts: opts, client: client}
}

// PostEvent serializes the event and delivers it to the endpoint,
// returning a confirmation that includes the endpoint's response text.
func (c *Client) PostEvent(ctx context.Context, ev tools.Event) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Sprintf("Success! Webhook responded with: %s", strings.TrimSpace(string(body))), nil
}

// Specs returns the tool specs this collaborator contributes. The webhook
// tool takes the same event fields as event creation, so the bridge
// validates the event shape before anything leaves the process.
func (c *Client) Specs() []tools.ToolSpec {
	return []tools.ToolSpec{
		{
			Name:        "post-webhook-event",
			Description: "Post a structured calendar event to the configured automation webhook.",
			InputSchema: tools.GenerateSchema[tools.Event](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				var ev tools.Event
				if err := decodeArgs(args, &ev); err != nil {
					return "", err
				}
				return c.PostEvent(ctx, ev)
			},
		},
	}
}

func decodeArgs(args map[string]any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
