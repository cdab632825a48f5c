package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/domain"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds the backend connection settings.
type Config struct {
	// BaseURL is the query/document API endpoint, e.g. http://localhost:8080.
	BaseURL    string
	TimeoutSec int
	Logger     *zap.Logger
}

// Client talks to the Vespa query and document HTTP APIs.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vespa base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid vespa base url: %w", err)
	}

	timeout := defaultRequestTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Search runs a compiled query against the query API.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vespa search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("search", resp)
	}

	var parsed SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	c.logger.Debug("vespa search",
		zap.Duration("took", time.Since(start)),
		zap.Int("hits", len(parsed.Root.Children)),
	)
	return &parsed, nil
}

// FeedDocument writes a wire document via the document API.
func (c *Client) FeedDocument(ctx context.Context, schema string, doc *Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required for feeding")
	}

	body, err := json.Marshal(struct {
		Fields map[string]any `json:"fields"`
	}{Fields: doc.Fields})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.documentURL(schema, doc.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build feed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vespa feed %s: %w", doc.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("feed", resp)
	}
	return nil
}

// GetDocument reads a wire document via the document API.
func (c *Client) GetDocument(ctx context.Context, schema, id string) (*Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(schema, id), nil)
	if err != nil {
		return nil, fmt.Errorf("build get request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vespa get %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("get", resp)
	}

	var parsed struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode document response: %w", err)
	}
	return &Document{ID: id, Fields: parsed.Fields}, nil
}

// DeleteDocument removes a document via the document API.
func (c *Client) DeleteDocument(ctx context.Context, schema, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.documentURL(schema, id), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vespa delete %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("delete", resp)
	}
	return nil
}

// Ping verifies the backend container is up.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ApplicationStatus", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vespa ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("ping", resp)
	}
	return nil
}

func (c *Client) documentURL(schema, id string) string {
	return fmt.Sprintf("%s/document/v1/%s/%s/docid/%s",
		c.baseURL, url.PathEscape(schema), url.PathEscape(schema), url.PathEscape(id))
}

func (c *Client) statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("vespa %s: status %d: %s", op, resp.StatusCode, string(body))
}
