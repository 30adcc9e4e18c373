package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the document text with Markdown syntax removed.
func (e *Extractor) Extract(_ context.Context, file *domain.RawFile) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidInput
	}
	return stripMarkdown(string(file.Content)), nil
}

type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

// Applied in order; fences go first so their contents are not rewritten.
var rewrites = []rewrite{
	{regexp.MustCompile("(?s)```[^\n]*\n(.*?)```"), "$1"},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`(?m)^>\s?`), ""},
	{regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`), ""},
	{regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`), ""},
	{regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`), "$2"},
	{regexp.MustCompile(`(^|\W)[*_]([^*_\n]+)[*_]`), "$1$2"},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// stripMarkdown removes common Markdown formatting and keeps the readable text.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, rw := range rewrites {
		content = rw.pattern.ReplaceAllString(content, rw.repl)
	}
	return strings.TrimSpace(content)
}
