package domain

// SearchResult is one web search hit, in provider relevance order. Its
// 1-based position in the result list is its citation number for the
// rest of the pipeline.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Image       string `json:"image,omitempty"`
}

// EnrichedResult is a SearchResult plus its fetched page text. Text is
// empty when the fetch or extraction failed; entries are never dropped
// or reordered, so positions keep matching citation numbers.
type EnrichedResult struct {
	SearchResult
	Text string
}
