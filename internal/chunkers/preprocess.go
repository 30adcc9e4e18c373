package chunkers

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// englishStopwords is the common English stopword list.
var englishStopwords = toSet(strings.Fields(`
a about above after again against all am an and any are as at be because been before being below
between both but by can did do does doing don down during each few for from further had has have
having he her here hers herself him himself his how i if in into is it its itself just me more most
my myself no nor not now of off on once only or other our ours ourselves out over own same she should
so some such than that the their theirs them themselves then there these they this those through to
too under until up very was we were what when where which while who whom why will with you your yours
yourself yourselves`))

// Preprocessor normalises text before embedding: lowercase, punctuation
// replaced by spaces, whitespace collapsed, and optionally stopwords removed.
type Preprocessor struct {
	removeStopwords bool
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor(removeStopwords bool) *Preprocessor {
	return &Preprocessor{removeStopwords: removeStopwords}
}

// Process returns the normalised text.
func (p *Preprocessor) Process(text string) string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))

	if !p.removeStopwords || text == "" {
		return text
	}

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !englishStopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Ensure preprocessed implements the interface.
var _ driven.Chunker = (*preprocessed)(nil)

// preprocessed runs a Preprocessor over each chunk of the wrapped strategy.
// Chunking happens first so sentence boundaries are still visible.
type preprocessed struct {
	inner driven.Chunker
	pre   *Preprocessor
}

// WithPreprocessor wraps a chunker so every chunk is normalised.
// Chunks that normalise to nothing are dropped.
func WithPreprocessor(inner driven.Chunker, pre *Preprocessor) driven.Chunker {
	return &preprocessed{inner: inner, pre: pre}
}

func (c *preprocessed) Name() string {
	return c.inner.Name()
}

func (c *preprocessed) Chunk(text string) []string {
	raw := c.inner.Chunk(text)
	out := make([]string, 0, len(raw))
	for _, chunk := range raw {
		if processed := c.pre.Process(chunk); processed != "" {
			out = append(out, processed)
		}
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
