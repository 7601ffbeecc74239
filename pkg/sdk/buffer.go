package perplexity

import (
	"strings"
	"unicode"
)

// flushThreshold is the number of whitespace-separated tokens that
// triggers a flush. Coalescing deltas into word-sized chunks keeps
// per-token re-render churn down without perceptible latency.
const flushThreshold = 4

// deltaBuffer accumulates delta text into renderable chunks. Once the
// pending text splits into more than flushThreshold tokens, everything
// up to the last (possibly still partial) token is flushed. finish
// flushes whatever remains exactly once, so no trailing fragment is
// ever dropped.
type deltaBuffer struct {
	flush   func(string)
	pending string
}

func newDeltaBuffer(flush func(string)) *deltaBuffer {
	return &deltaBuffer{flush: flush}
}

func (b *deltaBuffer) add(text string) {
	if text == "" {
		return
	}
	b.pending += text

	if len(strings.Fields(b.pending)) <= flushThreshold {
		return
	}

	cut := strings.LastIndexFunc(b.pending, unicode.IsSpace)
	if cut < 0 {
		return
	}
	b.flush(b.pending[:cut+1])
	b.pending = b.pending[cut+1:]
}

func (b *deltaBuffer) finish() {
	if b.pending == "" {
		return
	}
	b.flush(b.pending)
	b.pending = ""
}
