package tokenwindow

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.ChunkSize())
		}
		if c.Overlap() != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.Overlap())
		}
	})

	t.Run("overlap clamped below chunk size", func(t *testing.T) {
		c := New(WithChunkSize(8), WithOverlap(8))
		if c.Overlap() != 7 {
			t.Errorf("expected overlap 7 for chunk size 8, got %d", c.Overlap())
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.ChunkSize() != DefaultChunkSize || c.Overlap() != DefaultOverlap {
			t.Errorf("expected defaults, got %d/%d", c.ChunkSize(), c.Overlap())
		}
	})

	t.Run("chunk size of one", func(t *testing.T) {
		c := New(WithChunkSize(1), WithOverlap(5))
		if c.Overlap() != 0 {
			t.Errorf("expected overlap 0, got %d", c.Overlap())
		}
	})
}

func TestName(t *testing.T) {
	if New().Name() != "token_window" {
		t.Errorf("unexpected name %q", New().Name())
	}
}

func TestChunk_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if chunks := New().Chunk(text); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestChunk_Windows(t *testing.T) {
	c := New(WithChunkSize(4), WithOverlap(1))

	got := c.Chunk(words(10))
	want := []string{
		"w0 w1 w2 w3",
		"w3 w4 w5 w6",
		"w6 w7 w8 w9",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChunk_ShortText(t *testing.T) {
	got := New(WithChunkSize(10), WithOverlap(2)).Chunk("only three words")
	if len(got) != 1 || got[0] != "only three words" {
		t.Errorf("unexpected chunks: %v", got)
	}
}

func TestChunk_CoverageAndOverlap(t *testing.T) {
	cases := []struct{ total, size, overlap int }{
		{100, 10, 3},
		{57, 8, 0},
		{31, 5, 4},
		{512, 512, 50},
		{1000, 64, 16},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d/%d", tc.total, tc.size, tc.overlap), func(t *testing.T) {
			chunks := New(WithChunkSize(tc.size), WithOverlap(tc.overlap)).Chunk(words(tc.total))

			seen := make(map[string]bool)
			for i, chunk := range chunks {
				tokens := strings.Fields(chunk)
				if len(tokens) > tc.size {
					t.Errorf("chunk %d has %d tokens, max %d", i, len(tokens), tc.size)
				}
				for _, tok := range tokens {
					seen[tok] = true
				}
				if i == 0 {
					continue
				}
				prev := strings.Fields(chunks[i-1])
				shared := strings.Join(prev[len(prev)-tc.overlap:], " ")
				head := strings.Join(tokens[:tc.overlap], " ")
				if shared != head {
					t.Errorf("chunk %d should start with %q, got %q", i, shared, head)
				}
			}
			if len(seen) != tc.total {
				t.Errorf("expected every one of %d words covered, got %d", tc.total, len(seen))
			}

			step := tc.size - tc.overlap
			if maxChunks := (tc.total + step - 1) / step; len(chunks) > maxChunks {
				t.Errorf("expected at most %d chunks, got %d", maxChunks, len(chunks))
			}
		})
	}
}
