// Package answer turns a user query plus its search results into a
// streamed, citation-annotated completion: fetch page text, assemble the
// bounded prompt context, and open the streamed generation call.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
)

// Service orchestrates content retrieval, context assembly, and the
// streamed answer call.
type Service struct {
	gen      Generator
	fetcher  Fetcher
	maxChars int
	logger   *zap.Logger
}

// New creates an answer service. maxChars bounds the prompt context.
func New(gen Generator, fetcher Fetcher, maxChars int, logger *zap.Logger) *Service {
	return &Service{gen: gen, fetcher: fetcher, maxChars: maxChars, logger: logger}
}

// Stream fetches page text for the given results, builds the context, and
// opens the streamed generation request. With zero usable sources the
// model is still invoked: the citation prompt pins the fixed
// insufficient-information reply, so there is no empty-context branch.
func (s *Service) Stream(
	ctx context.Context, query string, results []domain.SearchResult,
) (domain.AnswerStream, error) {
	enriched := s.fetcher.FetchAll(ctx, results)

	searchContext := BuildContext(enriched, s.maxChars)
	s.logger.Debug("built answer context",
		zap.Int("sources", len(results)),
		zap.Int("context_chars", len(searchContext)),
	)

	stream, err := s.gen.Stream(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: answerSystemPrompt(searchContext)},
		{Role: domain.RoleUser, Content: query},
	})
	if err != nil {
		return nil, fmt.Errorf("stream answer: %w", err)
	}
	return stream, nil
}
