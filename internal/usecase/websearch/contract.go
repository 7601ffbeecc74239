package websearch

import (
	"context"

	"github.com/hackice20/perplexity-clone/internal/domain"
)

// Generator produces the non-streamed completion used for query rewriting.
type Generator interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// Provider issues the effective query to the web search backend.
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}
