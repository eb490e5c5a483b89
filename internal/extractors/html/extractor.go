package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles HTML pages such as saved job board listings.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedBlocks = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|nav|footer)(\s[^>]*)?>.*?</(script|style|noscript|head|svg|nav|footer)\s*>`)
	comments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	listItems     = regexp.MustCompile(`(?i)<li(\s[^>]*)?>`)
	openBlocks    = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|tr|blockquote|pre|table|section|article)(\s[^>]*)?>`)
	closeBlocks   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|ul|ol|tr|blockquote|pre|table|section|article)\s*>`)
	breaks        = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// Extract returns the readable text of the page. The <title> becomes the
// first line and list items are prefixed with "- ".
func (e *Extractor) Extract(_ context.Context, data []byte) (string, error) {
	content := string(data)

	var title string
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	content = droppedBlocks.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = listItems.ReplaceAllString(content, "\n- ")
	content = openBlocks.ReplaceAllString(content, "\n")
	content = closeBlocks.ReplaceAllString(content, "\n")
	content = breaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := make([]string, 0, 32)
	if title != "" {
		lines = append(lines, title)
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "-" || (len(lines) == 1 && line == title) {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
