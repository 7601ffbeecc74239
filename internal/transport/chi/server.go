// Package chi exposes the answer pipeline over HTTP: a single SSE
// endpoint that emits the sources frame first, then forwards every
// generation chunk as its own event, then a terminal [DONE] marker.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
	"github.com/hackice20/perplexity-clone/internal/logger"
	"github.com/hackice20/perplexity-clone/internal/metrics"
	"github.com/hackice20/perplexity-clone/internal/version"
)

// SearchService produces the ordered source list for a raw user query.
type SearchService interface {
	Search(ctx context.Context, userQuery string) ([]domain.SearchResult, error)
}

// AnswerService opens the streamed answer for a query and its sources.
type AnswerService interface {
	Stream(ctx context.Context, query string, results []domain.SearchResult) (domain.AnswerStream, error)
}

// Server handles the HTTP API.
type Server struct {
	search SearchService
	answer AnswerService
	logger *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(search SearchService, answer AnswerService, logger *zap.Logger) *Server {
	return &Server{search: search, answer: answer, logger: logger}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/search", s.handleSearch)
	r.Get("/healthz", s.handleHealthz)
}

// handleSearch runs the whole pipeline for one query. Frame order is the
// protocol invariant: the sources event is flushed before fetching or
// generation starts, every chunk follows as one event, [DONE] closes.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	userQuery := r.URL.Query().Get("q")
	if strings.TrimSpace(userQuery) == "" {
		writeError(w, http.StatusBadRequest, "No query provided")
		return
	}

	results, err := s.search.Search(ctx, userQuery)
	if err != nil {
		// Upstream-fatal: without sources there is nothing to stream.
		log.Error("search failed", zap.String("query", userQuery), zap.Error(err))
		writeError(w, statusForPipelineError(err), "search failed")
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Sources frame goes out before any fetching or generation so the
	// client always sees sources ahead of answer text.
	sources, err := json.Marshal(results)
	if err != nil {
		log.Error("marshal sources", zap.Error(err))
		return
	}
	writeEvent(w, flusher, sources)

	stream, err := s.answer.Stream(ctx, userQuery, results)
	if err != nil {
		// Headers are already sent; the connection closes without a
		// terminal marker and the client treats it as an aborted answer.
		log.Error("open answer stream failed", zap.Error(err))
		return
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			writeEvent(w, flusher, []byte("[DONE]"))
			return
		}
		if err != nil {
			log.Error("answer stream failed mid-flight", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			// Client went away; stream.Close releases the upstream call.
			log.Info("client disconnected, releasing generation stream")
			return
		}

		writeEvent(w, flusher, chunk.Raw)
		metrics.StreamDeltasForwardedTotal.Inc()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// writeEvent frames one SSE event and flushes it immediately.
func writeEvent(w io.Writer, flusher http.Flusher, payload []byte) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

func statusForPipelineError(err error) int {
	if errors.Is(err, domain.ErrEmptyQuery) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
