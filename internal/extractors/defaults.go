package extractors

import (
	"github.com/custodia-labs/vdb/internal/extractors/csv"
	"github.com/custodia-labs/vdb/internal/extractors/docx"
	"github.com/custodia-labs/vdb/internal/extractors/html"
	"github.com/custodia-labs/vdb/internal/extractors/json"
	"github.com/custodia-labs/vdb/internal/extractors/markdown"
	"github.com/custodia-labs/vdb/internal/extractors/pdf"
	"github.com/custodia-labs/vdb/internal/extractors/plaintext"
)

// RegisterDefaults registers all built-in extractors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(csv.New())
	r.Register(json.New())
	r.Register(pdf.New())
	r.Register(docx.New())
}

// NewDefaultRegistry returns a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
