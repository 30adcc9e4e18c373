package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types/>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create(documentPart)
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestExtract_Paragraphs(t *testing.T) {
	xml := `<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body></w:document>`

	got, err := New().Extract(context.Background(), &domain.RawFile{
		Filename: "report.docx",
		Content:  createTestDOCX(t, xml),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\nSecond paragraph.", got)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{
		Filename: "empty.docx",
		Content:  createTestDOCX(t, ""),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_NotZip(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{
		Filename: "fake.docx",
		Content:  []byte("not a zip"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
