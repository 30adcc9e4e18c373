package chunkers

import (
	"github.com/custodia-labs/vdb/internal/chunkers/sentence"
	"github.com/custodia-labs/vdb/internal/chunkers/tokenwindow"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in strategies with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(tokenwindow.Name, buildTokenWindow)
	r.Register(sentence.GroupName, buildSentenceGroup)
	r.Register(sentence.AccumulateName, buildSentenceAccumulate)
}

// buildTokenWindow supports config keys:
//   - chunk_size (int): Tokens per window (default: 512)
//   - overlap (int): Tokens shared by adjacent windows (default: 50)
func buildTokenWindow(cfg map[string]any) (driven.Chunker, error) {
	var opts []tokenwindow.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, tokenwindow.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, tokenwindow.WithOverlap(overlap))
	}

	return tokenwindow.New(opts...), nil
}

// buildSentenceGroup supports config keys:
//   - max_sentences (int): Sentences per chunk (default: 5)
//   - overlap_sentences (int): Sentences shared by adjacent chunks (default: 1)
func buildSentenceGroup(cfg map[string]any) (driven.Chunker, error) {
	maxSentences, ok := getIntFromConfig(cfg, "max_sentences")
	if !ok {
		maxSentences = sentence.DefaultMaxSentences
	}
	overlap, ok := getIntFromConfig(cfg, "overlap_sentences")
	if !ok {
		overlap = sentence.DefaultOverlapSentences
	}
	return sentence.NewGroup(maxSentences, overlap), nil
}

// buildSentenceAccumulate supports config keys:
//   - chunk_size (int): Word budget per chunk (default: 512)
func buildSentenceAccumulate(cfg map[string]any) (driven.Chunker, error) {
	size, _ := getIntFromConfig(cfg, "chunk_size")
	return sentence.NewAccumulate(size), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
