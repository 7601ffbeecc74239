// Package websearch owns producing search results for a raw user query:
// it rewrites the query into search-engine form via one non-streamed
// generation call, then asks the search provider.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hackice20/perplexity-clone/internal/domain"
)

// Service rewrites user queries and runs them against the search provider.
type Service struct {
	gen      Generator
	provider Provider
	logger   *zap.Logger
}

// New creates a web search service.
func New(gen Generator, provider Provider, logger *zap.Logger) *Service {
	return &Service{gen: gen, provider: provider, logger: logger}
}

// Rewrite turns a free-form user query into an effective search query.
// The first-choice completion content is used verbatim.
func (s *Service) Rewrite(ctx context.Context, userQuery string) (string, error) {
	if strings.TrimSpace(userQuery) == "" {
		return "", domain.ErrEmptyQuery
	}

	query, err := s.gen.Complete(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: rewriteSystemPrompt(userQuery)},
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	return query, nil
}

// Search produces the ordered result list for a raw user query. An empty
// provider response yields an empty list; downstream stages handle zero
// sources without special-casing here.
func (s *Service) Search(ctx context.Context, userQuery string) ([]domain.SearchResult, error) {
	query, err := s.Rewrite(ctx, userQuery)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rewrote search query",
		zap.String("user_query", userQuery),
		zap.String("effective_query", query),
	)

	results, err := s.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}
