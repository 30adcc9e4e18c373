// Package tokenwindow provides a fixed-size token window chunker.
package tokenwindow

import (
	"strings"

	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Name is the strategy name.
const Name = "token_window"

// DefaultChunkSize is the default number of tokens per window.
const DefaultChunkSize = 512

// DefaultOverlap is the default number of tokens shared by adjacent windows.
const DefaultOverlap = 50

// Chunker emits windows of whitespace-delimited tokens.
// Adjacent windows share exactly overlap tokens.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the number of tokens shared by adjacent windows.
// An overlap that does not fit the window is reduced to chunk size - 1.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a token window chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below the window so every step advances.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize - 1
	}

	return c
}

// Name returns the strategy name.
func (c *Chunker) Name() string {
	return Name
}

// ChunkSize returns the window size in tokens.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the number of shared tokens.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into token windows advancing by chunkSize-overlap.
// The last window may be shorter; no window is emitted once the end of
// the text has been covered.
func (c *Chunker) Chunk(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, len(tokens)/step+1)

	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}

	return chunks
}
