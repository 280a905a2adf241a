// Package content holds pure, I/O-free helpers for turning HTML and
// Markdown bodies into clean envelope payloads. None of these change
// Envelope's immutability contract; they operate on plain strings/bytes
// before or after the Envelope boundary.
package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips any markup bluemonday's UGC policy does not allow,
// for HTML bodies that will be stored or displayed rather than parsed.
func SanitizeHTML(body string) string {
	return ugcPolicy.Sanitize(body)
}

// ExtractText parses html and returns its visible text content with
// whitespace collapsed, for turning a scraped page into a raw_text
// envelope body.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	text := doc.Text()
	fields := strings.Fields(text)
	return strings.Join(fields, " "), nil
}

// RenderMarkdown converts Markdown source to HTML.
func RenderMarkdown(src string) []byte {
	return markdown.ToHTML([]byte(src), nil, nil)
}
