package answer

import (
	"fmt"
	"strings"

	"github.com/hackice20/perplexity-clone/internal/domain"
)

// BuildContext assembles the prompt context from enriched results.
//
// Entries with empty text are omitted entirely; the snippet is never
// substituted for a failed fetch. Surviving entries keep their original
// 1-based position as the block number so citation numbers stay aligned
// with the sources list the client already holds.
//
// The character budget applies to the joined block bundle, before it is
// interpolated into the system prompt. Truncation can therefore cut the
// final entry mid-text; that ordering is intentional and pinned by tests.
func BuildContext(results []domain.EnrichedResult, maxChars int) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		if r.Text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s\nTitle: %s\n%s", i+1, r.Link, r.Title, r.Text))
	}

	joined := strings.Join(blocks, "\n\n")
	if len(joined) > maxChars {
		joined = joined[:maxChars]
	}
	return joined
}
