// Package googlesearch implements the web search provider client against
// the Google Custom Search JSON API.
package googlesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
	"github.com/hackice20/perplexity-clone/internal/metrics"
)

// Client calls the Custom Search API.
type Client struct {
	baseURL     string
	apiKey      string
	engineID    string
	resultCount int
	httpClient  *http.Client
	logger      *zap.Logger
}

// Config holds the search provider settings.
type Config struct {
	BaseURL     string
	APIKey      string
	EngineID    string
	ResultCount int
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// NewClient creates a Custom Search client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		engineID:    cfg.EngineID,
		resultCount: cfg.ResultCount,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// searchResponse mirrors the subset of the Custom Search payload we consume.
// An absent or non-array items field decodes to a nil slice, which maps to
// zero results rather than an error.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

// errBodyLimit bounds provider error bodies carried in wrapped errors.
const errBodyLimit = 100

// Search issues one provider request. The query is expected to be the
// already-rewritten effective search query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search base url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(c.resultCount))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search request failed: %w", domain.ErrSearchProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Error("search provider returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("search API error %d: %s: %w",
			resp.StatusCode, string(body), domain.ErrSearchProvider)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode search response: %w", domain.ErrSearchProvider)
	}

	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()

	// The num parameter bounds the response, but a misbehaving provider
	// must not push the source list past the citation range.
	items := parsed.Items
	if len(items) > c.resultCount {
		items = items[:c.resultCount]
	}

	results := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, domain.SearchResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			Image:       ogImage(item),
		})
	}
	return results, nil
}

// ogImage resolves the preview image from the first pagemap metatag entry.
func ogImage(item searchItem) string {
	if len(item.Pagemap.Metatags) == 0 {
		return ""
	}
	return item.Pagemap.Metatags[0]["og:image"]
}
