// Package googlecal is the Google Calendar collaborator: event insert,
// filtered list, and delete against the Calendar v3 REST API using an
// OAuth refresh token.
package googlecal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VladRad03/Adulter/pkg/tools"
)

// Options configures the calendar client. Credentials are resolved once at
// construction and never read from the environment mid-conversation.
type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	BaseURL      string
	CalendarID   string
	HTTPClient   *http.Client
}

// Client calls the Google Calendar API.
type Client struct {
	opts   Options
	client *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a calendar client.
func New(opts Options) *Client {
	if opts.TokenURL == "" {
		opts.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.googleapis.com/calendar/v3"
	}
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{opts: opts, client: client}
}

// ListParams filter the event listing.
type ListParams struct {
	CalendarID string `json:"calendarId,omitempty" jsonschema_description:"Calendar to query, default primary"`
	TimeMin    string `json:"timeMin,omitempty" jsonschema_description:"RFC3339 lower bound, e.g. 2025-09-20T00:00:00-07:00"`
	TimeMax    string `json:"timeMax,omitempty" jsonschema_description:"RFC3339 upper bound"`
	Query      string `json:"query,omitempty" jsonschema_description:"Keyword to search in summary/description"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema_description:"Maximum number of events to return"`
}

// DeleteParams identify the event to delete.
type DeleteParams struct {
	EventID    string `json:"eventId" jsonschema_description:"Unique id of the event to delete"`
	CalendarID string `json:"calendarId,omitempty" jsonschema_description:"Calendar id, default primary"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid access token, refreshing it when expired. The lock
// covers only the cached token, never a network round trip result hand-off
// to callers.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.opts.RefreshToken},
		"client_id":     {c.opts.ClientID},
		"client_secret": {c.opts.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status: %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	c.mu.Unlock()
	return tr.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

// CreateEvent inserts an event and returns a success message with the
// event link.
func (c *Client) CreateEvent(ctx context.Context, ev tools.Event) (string, error) {
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(c.opts.CalendarID))
	resp, err := c.do(ctx, http.MethodPost, path, nil, ev)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar insert returned status: %d", resp.StatusCode)
	}

	var created struct {
		ID       string `json:"id"`
		HTMLLink string `json:"htmlLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode insert response: %w", err)
	}
	return fmt.Sprintf("Success! Event created: %s", created.HTMLLink), nil
}

// ListEvents returns matching events as a JSON document the issuing role
// can read on its next turn. Results are expanded single events ordered
// by start time, matching the source calendar query semantics.
func (c *Client) ListEvents(ctx context.Context, p ListParams) (string, error) {
	calendarID := p.CalendarID
	if calendarID == "" {
		calendarID = c.opts.CalendarID
	}
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	query := url.Values{
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {strconv.Itoa(maxResults)},
	}
	if p.TimeMin != "" {
		query.Set("timeMin", p.TimeMin)
	}
	if p.TimeMax != "" {
		query.Set("timeMax", p.TimeMax)
	}
	if p.Query != "" {
		query.Set("q", p.Query)
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar list returned status: %d", resp.StatusCode)
	}

	var listing struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("failed to decode list response: %w", err)
	}
	out, err := json.Marshal(listing.Items)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DeleteEvent removes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, p DeleteParams) (string, error) {
	calendarID := p.CalendarID
	if calendarID == "" {
		calendarID = c.opts.CalendarID
	}
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(p.EventID))
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar delete returned status: %d", resp.StatusCode)
	}
	return fmt.Sprintf("Success! Event %s deleted.", p.EventID), nil
}

// Specs returns the tool specs this collaborator contributes to the
// registry.
func (c *Client) Specs() []tools.ToolSpec {
	return []tools.ToolSpec{
		{
			Name:        "create-calendar-event",
			Description: "Create a Google Calendar event from a structured calendar JSON object.",
			InputSchema: tools.GenerateSchema[tools.Event](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				var ev tools.Event
				if err := decodeArgs(args, &ev); err != nil {
					return "", err
				}
				return c.CreateEvent(ctx, ev)
			},
		},
		{
			Name:        "list-calendar-events",
			Description: "List Google Calendar events with optional time range, keyword, and result limit filters.",
			InputSchema: tools.GenerateSchema[ListParams](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				var p ListParams
				if err := decodeArgs(args, &p); err != nil {
					return "", err
				}
				return c.ListEvents(ctx, p)
			},
		},
		{
			Name:        "delete-calendar-event",
			Description: "Delete a Google Calendar event by event id.",
			InputSchema: tools.GenerateSchema[DeleteParams](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				var p DeleteParams
				if err := decodeArgs(args, &p); err != nil {
					return "", err
				}
				return c.DeleteEvent(ctx, p)
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
