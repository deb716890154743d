// Package canvas fetches upcoming assignments from a Canvas LMS instance.
// Fetched assignments are cached in a local JSON file so repeated
// conversations do not hammer the API.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/VladRad03/Adulter/pkg/tools"
)

// Options configures the Canvas client.
type Options struct {
	BaseURL    string
	Token      string
	CacheFile  string
	HTTPClient *http.Client
	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

// Client calls the Canvas API.
type Client struct {
	opts   Options
	client *http.Client
	now    func() time.Time
}

// New creates a Canvas client.
func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{opts: opts, client: client, now: now}
}

// Assignment is one upcoming assignment with its course context.
type Assignment struct {
	Course string `json:"course"`
	Name   string `json:"name"`
	DueAt  string `json:"due_at"`
}

type course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type assignment struct {
	Name  string `json:"name"`
	DueAt string `json:"due_at"`
}

// getAll fetches every page of a Canvas collection, following the
// Link header's rel="next" URL.
func getAll[T any](ctx context.Context, c *Client, u string) ([]T, error) {
	var results []T
	for u != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create canvas request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("canvas api call failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("canvas api returned status: %d", resp.StatusCode)
		}

		var page []T
		err = json.NewDecoder(resp.Body).Decode(&page)
		next := nextLink(resp.Header.Get("Link"))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode canvas response: %w", err)
		}
		results = append(results, page...)
		u = next
	}
	return results, nil
}

// nextLink extracts the rel="next" URL from a Canvas Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}
		u := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, attr := range segments[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return u
			}
		}
	}
	return ""
}

// UpcomingAssignments fetches assignments with due dates across at most
// maxCourses courses. maxCourses <= 0 checks every course.
func (c *Client) UpcomingAssignments(ctx context.Context, maxCourses int) ([]Assignment, error) {
	courses, err := getAll[course](ctx, c, c.opts.BaseURL+"/courses")
	if err != nil {
		return nil, err
	}
	if maxCourses > 0 && len(courses) > maxCourses {
		courses = courses[:maxCourses]
	}

	var out []Assignment
	for _, crs := range courses {
		u := fmt.Sprintf("%s/courses/%d/assignments", c.opts.BaseURL, crs.ID)
		page, err := getAll[assignment](ctx, c, u)
		if err != nil {
			// A single inaccessible course should not sink the whole
			// fetch; the remaining courses still yield assignments.
			continue
		}
		for _, a := range page {
			if a.DueAt != "" {
				out = append(out, Assignment{Course: crs.Name, Name: a.Name, DueAt: a.DueAt})
			}
		}
	}
	return out, nil
}

// FilterFuture keeps assignments due strictly after today. Due dates are
// ISO 8601 strings, so lexicographic comparison against today's date is
// the date comparison.
func FilterFuture(assignments []Assignment, today string) []Assignment {
	var out []Assignment
	for _, a := range assignments {
		if a.DueAt > today {
			out = append(out, a)
		}
	}
	return out
}

// FutureAssignments returns cached assignments when the cache file has
// them, otherwise fetches, filters to the future, and saves the cache.
func (c *Client) FutureAssignments(ctx context.Context, maxCourses int) ([]Assignment, error) {
	if cached, err := c.loadCache(); err == nil && len(cached) > 0 {
		return cached, nil
	}

	assignments, err := c.UpcomingAssignments(ctx, maxCourses)
	if err != nil {
		return nil, err
	}
	future := FilterFuture(assignments, c.now().Format("2006-01-02"))
	if err := c.saveCache(future); err != nil {
		return nil, err
	}
	return future, nil
}

func (c *Client) loadCache() ([]Assignment, error) {
	if c.opts.CacheFile == "" {
		return nil, os.ErrNotExist
	}
	raw, err := os.ReadFile(c.opts.CacheFile)
	if err != nil {
		return nil, err
	}
	var out []Assignment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) saveCache(assignments []Assignment) error {
	if c.opts.CacheFile == "" {
		return nil
	}
	raw, err := json.MarshalIndent(assignments, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.opts.CacheFile, raw, 0644)
}

// FetchParams bound the assignment fetch.
type FetchParams struct {
	MaxCourses int `json:"maxCourses,omitempty" jsonschema_description:"Maximum number of courses to check; 0 checks all"`
}

// Specs returns the tool specs this collaborator contributes.
func (c *Client) Specs() []tools.ToolSpec {
	return []tools.ToolSpec{
		{
			Name:        "fetch-upcoming-assignments",
			Description: "Fetch upcoming Canvas assignments with future due dates, using the local cache when present.",
			InputSchema: tools.GenerateSchema[FetchParams](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				maxCourses := 0
				if v, ok := args["maxCourses"]; ok {
					switch n := v.(type) {
					case float64:
						maxCourses = int(n)
					case int:
						maxCourses = n
					}
				}
				assignments, err := c.FutureAssignments(ctx, maxCourses)
				if err != nil {
					return "", err
				}
				raw, err := json.Marshal(assignments)
				if err != nil {
					return "", err
				}
				return string(raw), nil
			},
		},
	}
}
