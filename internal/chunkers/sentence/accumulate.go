package sentence

import (
	"strings"

	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// Ensure Accumulate implements the interface.
var _ driven.Chunker = (*Accumulate)(nil)

// AccumulateName is the strategy name of Accumulate.
const AccumulateName = "sentence_accumulate"

// DefaultMaxWords is the default word budget per chunk.
const DefaultMaxWords = 512

// Accumulate packs whole sentences into chunks of at most maxWords words.
// Words approximate tokens. A sentence longer than the budget becomes a
// chunk of its own rather than being cut.
type Accumulate struct {
	maxWords int
}

// NewAccumulate creates an accumulating chunker.
func NewAccumulate(maxWords int) *Accumulate {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Accumulate{maxWords: maxWords}
}

// Name returns the strategy name.
func (a *Accumulate) Name() string {
	return AccumulateName
}

// MaxWords returns the word budget.
func (a *Accumulate) MaxWords() int {
	return a.maxWords
}

// Chunk accumulates sentences until the next one would exceed the budget,
// then starts a new chunk with that sentence. The final chunk is always emitted.
func (a *Accumulate) Chunk(text string) []string {
	var (
		chunks  []string
		current []string
		words   int
	)

	for _, s := range Split(text) {
		n := len(strings.Fields(s))
		if words+n > a.maxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, words = nil, 0
		}
		current = append(current, s)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
