package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
	"github.com/hackice20/perplexity-clone/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type stubStream struct {
	chunks []domain.StreamChunk
	err    error
	pos    int
	closed bool
}

func (s *stubStream) Recv() (domain.StreamChunk, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return domain.StreamChunk{}, s.err
		}
		return domain.StreamChunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}

type mockSearch struct {
	results []domain.SearchResult
	err     error
	calls   int
}

func (m *mockSearch) Search(_ context.Context, _ string) ([]domain.SearchResult, error) {
	m.calls++
	return m.results, m.err
}

type mockAnswer struct {
	stream *stubStream
	err    error
	calls  int
}

func (m *mockAnswer) Stream(
	_ context.Context, _ string, _ []domain.SearchResult,
) (domain.AnswerStream, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func newTestRouter(search *mockSearch, answer *mockAnswer) chi.Router {
	r := chi.NewRouter()
	NewServer(search, answer, zap.NewNop()).Register(r)
	return r
}

func chunk(delta string) domain.StreamChunk {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": delta}}},
	})
	return domain.StreamChunk{Content: delta, Raw: raw}
}

// events splits an SSE body into its data payloads.
func events(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	for _, block := range strings.Split(body, "\n\n") {
		if block == "" {
			continue
		}
		payload, ok := strings.CutPrefix(block, "data: ")
		if !ok {
			t.Fatalf("malformed SSE block: %q", block)
		}
		out = append(out, payload)
	}
	return out
}

// --- Tests ---

func TestHandleSearch_FullStream(t *testing.T) {
	results := make([]domain.SearchResult, 5)
	for i := range results {
		results[i] = domain.SearchResult{Title: "t", Link: "https://example.com", DisplayLink: "example.com"}
	}
	search := &mockSearch{results: results}
	answer := &mockAnswer{stream: &stubStream{chunks: []domain.StreamChunk{
		chunk("Paris"), chunk(" is the capital"),
	}}}

	rec := httptest.NewRecorder()
	newTestRouter(search, answer).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/search?q=capital+of+France", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache control = %q", cc)
	}

	evs := events(t, rec.Body.String())
	if len(evs) != 4 { // sources + 2 deltas + [DONE]
		t.Fatalf("events = %d, want 4: %v", len(evs), evs)
	}

	var sources []domain.SearchResult
	if err := json.Unmarshal([]byte(evs[0]), &sources); err != nil {
		t.Fatalf("first event must be the sources array: %v", err)
	}
	if len(sources) != 5 {
		t.Errorf("sources = %d, want 5", len(sources))
	}

	var full string
	for _, ev := range evs[1:3] {
		var parsed struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(ev), &parsed); err != nil {
			t.Fatalf("delta event not chunk JSON: %v", err)
		}
		full += parsed.Choices[0].Delta.Content
	}
	if full != "Paris is the capital" {
		t.Errorf("assembled deltas = %q", full)
	}

	if evs[3] != "[DONE]" {
		t.Errorf("terminal event = %q", evs[3])
	}
	if !answer.stream.closed {
		t.Error("upstream stream must be closed")
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	search := &mockSearch{}
	answer := &mockAnswer{}

	for _, target := range []string{"/search", "/search?q=", "/search?q=%20%20"} {
		rec := httptest.NewRecorder()
		newTestRouter(search, answer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("%s: expected a JSON error body, got %q", target, rec.Body.String())
		}
	}

	if search.calls != 0 || answer.calls != 0 {
		t.Errorf("no collaborator calls expected, got search=%d answer=%d", search.calls, answer.calls)
	}
}

func TestHandleSearch_ZeroSources(t *testing.T) {
	search := &mockSearch{results: nil}
	answer := &mockAnswer{stream: &stubStream{chunks: []domain.StreamChunk{
		chunk("The search results don't contain enough information to answer this query."),
	}}}

	rec := httptest.NewRecorder()
	newTestRouter(search, answer).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/search?q=anything", nil))

	evs := events(t, rec.Body.String())
	if evs[0] != "[]" {
		t.Errorf("sources event = %q, want empty array", evs[0])
	}
	if answer.calls != 1 {
		t.Error("generation must still run with zero sources")
	}
	if evs[len(evs)-1] != "[DONE]" {
		t.Error("stream must still terminate normally")
	}
}

func TestHandleSearch_SearchFailure(t *testing.T) {
	search := &mockSearch{err: domain.ErrSearchProvider}
	answer := &mockAnswer{}

	rec := httptest.NewRecorder()
	newTestRouter(search, answer).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/search?q=anything", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if answer.calls != 0 {
		t.Error("generation must not run after a search failure")
	}
}

func TestHandleSearch_StreamOpenFailure(t *testing.T) {
	search := &mockSearch{results: []domain.SearchResult{{Title: "t"}}}
	answer := &mockAnswer{err: domain.ErrGenerationProvider}

	rec := httptest.NewRecorder()
	newTestRouter(search, answer).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/search?q=anything", nil))

	evs := events(t, rec.Body.String())
	if len(evs) != 1 {
		t.Fatalf("events = %d, want only the sources frame", len(evs))
	}
	if evs[0] == "[DONE]" {
		t.Error("aborted stream must not emit a terminal marker")
	}
}

func TestHandleSearch_MidStreamFailure(t *testing.T) {
	search := &mockSearch{results: []domain.SearchResult{{Title: "t"}}}
	answer := &mockAnswer{stream: &stubStream{
		chunks: []domain.StreamChunk{chunk("partial")},
		err:    domain.ErrGenerationProvider,
	}}

	rec := httptest.NewRecorder()
	newTestRouter(search, answer).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/search?q=anything", nil))

	evs := events(t, rec.Body.String())
	if len(evs) != 2 { // sources + the partial delta, no [DONE]
		t.Fatalf("events = %d, want 2: %v", len(evs), evs)
	}
	if evs[len(evs)-1] == "[DONE]" {
		t.Error("failed stream must close without a terminal marker")
	}
	if !answer.stream.closed {
		t.Error("upstream stream must be released")
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&mockSearch{}, &mockAnswer{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
}
