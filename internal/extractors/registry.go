package extractors

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches files to extractors by MIME type, then by extension.
// A MIME entry of the form "text/*" matches any subtype without a more
// specific extractor.
type Registry struct {
	mu          sync.RWMutex
	byMIME      map[string][]driven.Extractor
	byExtension map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME:      make(map[string][]driven.Extractor),
		byExtension: make(map[string]string),
	}
}

// Register adds an extractor. Extractors for the same MIME type are kept
// in descending priority order.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mimeTypes := extractor.SupportedMIMETypes()
	for _, mt := range mimeTypes {
		list := append(r.byMIME[mt], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}

	if len(mimeTypes) == 0 {
		return
	}
	for _, ext := range extractor.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if current, ok := r.byExtension[ext]; ok && r.priorityLocked(current) >= extractor.Priority() {
			continue
		}
		r.byExtension[ext] = mimeTypes[0]
	}
}

// Resolve returns the MIME type used to extract a file.
// The declared content type wins when an extractor supports it; otherwise
// the extension decides.
func (r *Registry) Resolve(filename, contentType string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mt := normaliseMIME(contentType); mt != "" && r.lookupLocked(mt) != nil {
		return mt, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := r.byExtension[ext]; ok {
		return mt, nil
	}
	if mt := normaliseMIME(mime.TypeByExtension(ext)); mt != "" && r.lookupLocked(mt) != nil {
		return mt, nil
	}

	return "", fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, filename, contentType)
}

// Extract converts the file with the highest-priority matching extractor.
func (r *Registry) Extract(ctx context.Context, file *domain.RawFile) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidInput
	}

	mt := normaliseMIME(file.MIMEType)
	if mt == "" {
		resolved, err := r.Resolve(file.Filename, "")
		if err != nil {
			return "", err
		}
		mt = resolved
	}

	r.mu.RLock()
	extractor := r.lookupLocked(mt)
	r.mu.RUnlock()

	if extractor == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mt)
	}
	return extractor.Extract(ctx, file)
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookupLocked(mt string) driven.Extractor {
	if list := r.byMIME[mt]; len(list) > 0 {
		return list[0]
	}
	if major, _, ok := strings.Cut(mt, "/"); ok {
		if list := r.byMIME[major+"/*"]; len(list) > 0 {
			return list[0]
		}
	}
	return nil
}

func (r *Registry) priorityLocked(mt string) int {
	if e := r.lookupLocked(mt); e != nil {
		return e.Priority()
	}
	return 0
}

// normaliseMIME lowercases a content type and drops its parameters.
func normaliseMIME(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
