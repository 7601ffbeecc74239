package perplexity

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the answer engine's streaming search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	chunking   bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The client must not
// impose a response timeout; streams live as long as generation runs.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithChunking toggles delta coalescing. Enabled by default; disabled,
// every non-empty delta is delivered immediately.
func WithChunking(enabled bool) Option {
	return func(c *Client) { c.chunking = enabled }
}

// NewClient creates a client for the given server base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		chunking:   true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ask runs one query cycle and blocks until the stream ends. Callbacks
// fire in protocol order: OnSources once, then OnDelta per chunk.
//
// On a mid-stream failure the already-received sources and text are
// returned alongside the error; delivered content is never revoked.
func (c *Client) Ask(ctx context.Context, query string, ev Events) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("perplexity: empty query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("perplexity: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServerError(resp)
	}

	answer := &Answer{}
	dec := &decoder{}

	deliver := func(text string) {
		answer.Text += text
		if ev.OnDelta != nil {
			ev.OnDelta(text)
		}
	}
	buf := newDeltaBuffer(deliver)

	feed := func(payload []byte) error {
		delta, err := dec.feed(payload)
		if err != nil {
			return err
		}
		if dec.state == expectDeltas && answer.Sources == nil {
			answer.Sources = dec.sources
			if answer.Sources == nil {
				answer.Sources = []Source{}
			}
			if ev.OnSources != nil {
				ev.OnSources(answer.Sources)
			}
		}
		if delta == "" {
			return nil
		}
		if c.chunking {
			buf.add(delta)
		} else {
			deliver(delta)
		}
		return nil
	}

	err = scanEvents(resp.Body, func(payload []byte) error {
		return feed(payload)
	})

	// All buffered text is flushed exactly once, stream end or failure.
	buf.finish()

	if err != nil {
		return answer, err
	}
	if !dec.done() {
		return answer, fmt.Errorf("%w: stream closed without terminal marker", ErrProtocol)
	}
	return answer, nil
}

// scanEvents reads SSE events (data-only framing) and hands each payload
// to fn in arrival order.
func scanEvents(body io.Reader, fn func(payload []byte) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []byte
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				if err := fn(data); err != nil {
					return err
				}
				data = nil
			}
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			data = append(data, payload...)
		}
		// Comment and unknown field lines are ignored per the SSE spec.
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("perplexity: read stream: %w", err)
	}
	if len(data) > 0 {
		return fn(data)
	}
	return nil
}

func decodeServerError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("perplexity: server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("perplexity: server returned %d", resp.StatusCode)
}
