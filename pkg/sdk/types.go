package perplexity

// Source is one search result backing the answer. Its 1-based position
// in the sources list is the citation number used in the answer text.
type Source struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Image       string `json:"image,omitempty"`
}

// Answer is the assembled result of one query cycle.
type Answer struct {
	Sources []Source
	// Text is the full answer markdown, concatenated from every delta
	// received before the stream ended or failed.
	Text string
}

// Events carries the streaming callbacks. Either may be nil.
type Events struct {
	// OnSources fires once, before any answer text.
	OnSources func(sources []Source)
	// OnDelta fires for each renderable text chunk, in order. With
	// chunking enabled (the default) deltas are coalesced into word-sized
	// chunks; the trailing fragment is always delivered at stream end.
	OnDelta func(text string)
}
