package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypeHTML, "application/xhtml+xml"}
}

// Extract returns the visible text of the page, one block per line.
func (n *Normaliser) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("extract html: %w: nil document", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("extract html from %s: %w", raw.URI, err)
	}

	title := extractTitle(source)
	if title == "" {
		title = normalisers.TitleFromURI(raw)
	}

	return normalisers.NewDocument(raw, "html", title, Strip(source)), nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	invisible  = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)(\s[^>]*)?>.*?</(script|style|noscript|head|svg|template)>`)
	comments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBreak = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|td|th|blockquote|pre|table|section|article|header|footer|main|nav|ul|ol|dl|dt|dd)(\s[^>]*)?/?>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	spaceRun   = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// Strip removes markup and returns the readable text. Blank lines are dropped.
func Strip(content string) string {
	content = invisible.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = blockBreak.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = spaceRun.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// extractTitle returns the decoded contents of the <title> element.
func extractTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
