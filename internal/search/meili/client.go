// Package meili implements search.Index against a Meilisearch server's
// REST API.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vagahub/engine/internal/search"
)

// Config locates the Meilisearch server.
type Config struct {
	Host    string
	APIKey  string
	IndexID string
	Timeout time.Duration
}

// Client pushes documents into one Meilisearch index.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client. IndexID defaults to "postings".
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("search.host is required")
	}
	if cfg.IndexID == "" {
		cfg.IndexID = "postings"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EnsureReady creates the index and applies its settings. Creating an
// index that already exists is not an error.
func (c *Client) EnsureReady(ctx context.Context) error {
	create := map[string]string{"uid": c.cfg.IndexID, "primaryKey": "id"}
	if err := c.call(ctx, http.MethodPost, "/indexes", create, nil); err != nil {
		return err
	}

	settings := map[string]any{
		"filterableAttributes": []string{
			"workMode", "seniority", "employmentType", "tags",
			"companyName", "locationText", "sourceName", "postedAt", "status",
		},
		"sortableAttributes": []string{"postedAt", "capturedAt"},
	}
	path := fmt.Sprintf("/indexes/%s/settings", c.cfg.IndexID)
	return c.call(ctx, http.MethodPatch, path, settings, nil)
}

// Upsert implements search.Index. Meilisearch replaces documents sharing
// the primary key.
func (c *Client) Upsert(ctx context.Context, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}
	path := fmt.Sprintf("/indexes/%s/documents", c.cfg.IndexID)
	return c.call(ctx, http.MethodPost, path, docs, nil)
}

// Search implements search.Index.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]search.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	body := map[string]any{"q": query, "limit": limit}
	var result struct {
		Hits []search.Document `json:"hits"`
	}
	path := fmt.Sprintf("/indexes/%s/search", c.cfg.IndexID)
	if err := c.call(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// Close implements search.Index.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Host+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("meilisearch %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusConflict {
		// index_already_exists
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("meilisearch %s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw, 200))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
