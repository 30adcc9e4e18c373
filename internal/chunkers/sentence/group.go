package sentence

import (
	"strings"

	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Group implements the interface.
var _ driven.Chunker = (*Group)(nil)

// GroupName is the strategy name of Group.
const GroupName = "sentence_group"

// Group defaults.
const (
	DefaultMaxSentences     = 5
	DefaultOverlapSentences = 1
)

// Group emits up to maxSentences consecutive sentences per chunk,
// advancing by maxSentences-overlap sentences.
type Group struct {
	maxSentences int
	overlap      int
}

// NewGroup creates a sentence group chunker. Invalid values fall back to
// the defaults and overlap is kept below maxSentences.
func NewGroup(maxSentences, overlap int) *Group {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSentences {
		overlap = maxSentences - 1
	}
	return &Group{maxSentences: maxSentences, overlap: overlap}
}

// Name returns the strategy name.
func (g *Group) Name() string {
	return GroupName
}

// Chunk groups the sentences of text.
func (g *Group) Chunk(text string) []string {
	sentences := Split(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(sentences); start += g.maxSentences - g.overlap {
		end := start + g.maxSentences
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[start:end], " "))
		if end == len(sentences) {
			break
		}
	}
	return chunks
}
