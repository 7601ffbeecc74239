// Package retrieve fetches the pages behind search results and extracts
// their plain text. Every result is fetched concurrently; a failure in
// one fetch never fails the batch, it just degrades that entry's text
// to empty.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
	"github.com/hackice20/perplexity-clone/internal/metrics"
)

// Fetcher retrieves page text for search results.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
	userAgent  string
	logger     *zap.Logger
}

// Config holds page fetch settings.
type Config struct {
	Timeout    time.Duration
	MaxBody    int64 // bytes
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewFetcher creates a page fetcher.
func NewFetcher(cfg *Config) *Fetcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Fetcher{
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		maxBody:    cfg.MaxBody,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// FetchAll fetches every result concurrently. The returned slice always
// has the same length and order as the input; entries whose fetch failed
// carry empty text. Filtering happens later, at context-build time.
func (f *Fetcher) FetchAll(ctx context.Context, results []domain.SearchResult) []domain.EnrichedResult {
	enriched := make([]domain.EnrichedResult, len(results))

	var wg sync.WaitGroup
	for i, r := range results {
		wg.Add(1)
		go func(i int, r domain.SearchResult) {
			defer wg.Done()
			text, err := f.fetchOne(ctx, r.Link)
			if err != nil {
				f.logger.Warn("page fetch degraded to empty text",
					zap.String("link", r.Link),
					zap.Error(err),
				)
			}
			enriched[i] = domain.EnrichedResult{SearchResult: r, Text: text}
		}(i, r)
	}
	wg.Wait()

	return enriched
}

// fetchOne retrieves one page under its own timeout so a hanging source
// cannot stall the batch.
func (f *Fetcher) fetchOne(ctx context.Context, link string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, link, nil)
	if err != nil {
		metrics.PageFetchTotal.WithLabelValues("http_error").Inc()
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.PageFetchTotal.WithLabelValues("timeout").Inc()
		} else {
			metrics.PageFetchTotal.WithLabelValues("http_error").Inc()
		}
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.PageFetchTotal.WithLabelValues("http_error").Inc()
		return "", fmt.Errorf("fetch %s: status %d", link, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.maxBody)
	contentType := resp.Header.Get("Content-Type")

	text, outcome, err := extract(contentType, body)
	metrics.PageFetchTotal.WithLabelValues(outcome).Inc()
	return text, err
}

// extract dispatches on content type. Unknown or missing types are
// skipped explicitly rather than guessed at.
func extract(contentType string, body io.Reader) (text, outcome string, err error) {
	switch {
	case strings.Contains(contentType, "text/html"):
		text, err := extractHTML(body)
		if err != nil {
			return "", "parse_error", err
		}
		return text, "ok", nil

	case strings.Contains(contentType, "application/json"):
		text, err := extractJSON(body)
		if err != nil {
			return "", "parse_error", err
		}
		return text, "ok", nil

	case strings.Contains(contentType, "text/plain"),
		strings.Contains(contentType, "application/xml"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", "parse_error", fmt.Errorf("read body: %w", err)
		}
		return string(raw), "ok", nil

	default:
		return "", "unsupported_type", nil
	}
}
