package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fitsync/internal/errs"
	"fitsync/internal/observability"
)

const (
	NotionBaseURL = "https://api.notion.com/v1"
	NotionVersion = "2022-06-28"
)

// NotionClient talks to the Notion REST API. Zero BaseURL and HTTPClient
// fall back to the public API and a 30 second timeout.
type NotionClient struct {
	Secret     string
	BaseURL    string
	HTTPClient *http.Client
}

// Query runs a database query. Only one page of results is returned; callers
// follow NextCursor.
func (c *NotionClient) Query(ctx context.Context, databaseID string, q Query) (*QueryResult, error) {
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create adds a page to a database.
func (c *NotionClient) Create(ctx context.Context, databaseID string, props Properties) (*Page, error) {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": props,
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Update patches the given properties of a page, leaving others untouched.
func (c *NotionClient) Update(ctx context.Context, pageID string, props Properties) (*Page, error) {
	body := map[string]any{"properties": props}
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Retrieve fetches a single page.
func (c *NotionClient) Retrieve(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *NotionClient) do(ctx context.Context, method, path string, body, out any) error {
	op := "notion " + method + " " + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = NotionBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Secret)
	req.Header.Set("Notion-Version", NotionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		observability.RecordUpstreamRequest("notion", 0)
		return errs.Transport(op, err)
	}
	defer resp.Body.Close()
	observability.RecordUpstreamRequest("notion", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errs.E(errs.KindNotFound, op, errorBody(resp))
	case resp.StatusCode == http.StatusUnauthorized:
		return errs.E(errs.KindUpstreamAuth, op, errorBody(resp))
	case resp.StatusCode >= 300:
		return errs.E(errs.KindUpstream, op, errorBody(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func errorBody(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
}
