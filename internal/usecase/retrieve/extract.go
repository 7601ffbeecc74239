package retrieve

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// extractHTML parses the document, drops script/style/noscript subtrees,
// and returns the body's text content with whitespace runs collapsed.
func extractHTML(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script,style,noscript").Remove()

	text := doc.Find("body").Text()
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " ")), nil
}

// extractJSON keeps the JSON value as text, unflattened. Invalid JSON is
// a parse failure, mirroring a failed response decode.
func extractJSON(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(raw) {
		return "", fmt.Errorf("invalid json body")
	}
	return strings.TrimSpace(string(raw)), nil
}
