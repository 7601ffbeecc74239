package answer

import (
	"context"

	"github.com/hackice20/perplexity-clone/internal/domain"
)

// Generator produces the streamed completion for the final answer.
type Generator interface {
	Stream(ctx context.Context, messages []domain.Message) (domain.AnswerStream, error)
}

// Fetcher retrieves page text for search results, one entry per input
// result, in input order.
type Fetcher interface {
	FetchAll(ctx context.Context, results []domain.SearchResult) []domain.EnrichedResult
}
