package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

func TestSupported(t *testing.T) {
	extractor := New()
	assert.Equal(t, []string{"application/pdf"}, extractor.SupportedMIMETypes())
	assert.Equal(t, []string{".pdf"}, extractor.SupportedExtensions())
	assert.Equal(t, 50, extractor.Priority())
}

func TestExtract_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		file *domain.RawFile
	}{
		{"nil file", nil},
		{"empty content", &domain.RawFile{Filename: "a.pdf"}},
		{"not a pdf", &domain.RawFile{Filename: "a.pdf", Content: []byte("plain text, no header")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), tt.file)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
