package perplexity

import (
	"regexp"
	"strconv"
)

// citationPattern matches inline markdown links whose visible text is a
// bare integer: [3](https://example.com). Group 1 is the integer, group
// 2 the URL.
var citationPattern = regexp.MustCompile(`\[(\d+)\]\(([^)\s]+)\)`)

// Citation is one candidate citation token found in answer markdown.
type Citation struct {
	// Number is the cited source number as written.
	Number int
	// URL is the link target as written.
	URL string
	// Start and End are byte offsets of the whole [N](url) token.
	Start, End int
	// Valid reports whether Number resolves to a source; invalid tokens
	// should be rendered as plain links.
	Valid bool
	// Source is the resolved source when Valid.
	Source Source
}

// ResolveCitation maps a citation number to its source. Valid numbers
// are 1-based positions into the sources list; anything else resolves to
// nothing. Total for any n and any (including nil) sources list.
func ResolveCitation(n int, sources []Source) (Source, bool) {
	if n < 1 || n > len(sources) {
		return Source{}, false
	}
	return sources[n-1], true
}

// Citations finds every candidate citation token in the markdown and
// resolves each against the sources list. It never fails: tokens that
// do not resolve are returned with Valid=false.
func Citations(markdown string, sources []Source) []Citation {
	matches := citationPattern.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]Citation, 0, len(matches))
	for _, m := range matches {
		token := Citation{
			URL:   markdown[m[4]:m[5]],
			Start: m[0],
			End:   m[1],
		}
		// Numbers too large for int stay invalid rather than erroring.
		if n, err := strconv.Atoi(markdown[m[2]:m[3]]); err == nil {
			token.Number = n
			token.Source, token.Valid = ResolveCitation(n, sources)
		}
		out = append(out, token)
	}
	return out
}
