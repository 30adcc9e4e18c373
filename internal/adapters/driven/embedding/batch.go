// Package embedding holds helpers shared by the embedding service adapters.
package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// DefaultBatchSize is the number of texts sent per upstream request.
const DefaultBatchSize = 100

// BatchFunc embeds a single batch. It must return exactly one vector per text.
type BatchFunc func(ctx context.Context, batch []string, model string) ([][]float32, error)

// Batcher splits embedding requests into fixed-size batches and optionally
// throttles them.
type Batcher struct {
	size    int
	limiter *rate.Limiter
}

// NewBatcher creates a Batcher. A non-positive size uses DefaultBatchSize and
// a non-positive rps disables throttling.
func NewBatcher(size int, rps float64) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	b := &Batcher{size: size}
	if rps > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return b
}

// Size returns the batch size.
func (b *Batcher) Size() int {
	return b.size
}

// Run embeds texts batch by batch, preserving input order. Any batch failure
// aborts the call and no partial result is returned.
func (b *Batcher) Run(ctx context.Context, texts []string, model string, fn BatchFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.size {
		end := min(start+b.size, len(texts))

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		vectors, err := fn(ctx, texts[start:end], model)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts",
				start, end-1, len(vectors), end-start)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// ToFloat32 converts a float64 vector as returned by JSON decoding.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
