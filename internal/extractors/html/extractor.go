package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Higher than plaintext
}

// Extract returns the text with HTML markup removed.
func (e *Extractor) Extract(_ context.Context, file *domain.RawFile) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidInput
	}
	return stripHTML(string(file.Content)), nil
}

var (
	droppedSections = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)\b[^>]*>.*?</(script|style|noscript|head|svg)>`)
	comments        = regexp.MustCompile(`(?s)<!--.*?-->`)
	lineBreaks      = regexp.MustCompile(`(?i)<(br|hr)\s*/?>|</?(p|div|section|article|li|ul|ol|table|tr|h[1-6]|blockquote|pre)\b[^>]*>`)
	tags            = regexp.MustCompile(`<[^>]+>`)
	spaces          = regexp.MustCompile(`[ \t]+`)
)

// stripHTML removes markup and returns one trimmed line per text block.
func stripHTML(content string) string {
	content = droppedSections.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = tags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
