package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore(t *testing.T) {
	store, dir := newStore(t)
	assert.Equal(t, filepath.Join(dir, FileName), store.Path())

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewConfigStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("embedding.batch_size", 64))
	require.NoError(t, store.Set("embedding.requests_per_second", 2.5))
	require.NoError(t, store.Set("chunking.preprocess", true))

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 64, store.GetInt("embedding.batch_size"))
	assert.InDelta(t, 2.5, store.GetFloat("embedding.requests_per_second"), 1e-9)
	assert.InDelta(t, 64.0, store.GetFloat("embedding.batch_size"), 1e-9)
	assert.True(t, store.GetBool("chunking.preprocess"))

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("embedding.batch_size"))
	assert.Equal(t, 0, store.GetInt("embedding.provider"))
	assert.False(t, store.GetBool("missing"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.model", "text-embedding-3-small"))
	require.NoError(t, store.Set("query.n_results", 7))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[embedding]")
	assert.Contains(t, string(raw), "[query]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("embedding.provider"))
	assert.Equal(t, "text-embedding-3-small", reloaded.GetString("embedding.model"))
	assert.Equal(t, 7, reloaded.GetInt("query.n_results"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[data]
dir = "/srv/vdb"

[chunking]
strategy = "token_window"
chunk_size = 256
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/vdb", store.GetString("data.dir"))
	assert.Equal(t, "token_window", store.GetString("chunking.strategy"))
	assert.Equal(t, 256, store.GetInt("chunking.chunk_size"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.NoFileExists(t, store.Path()+".tmp")
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("query.n_results", n)
			_ = store.GetInt("query.n_results")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("query.n_results")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	got := nestMap(map[string]any{
		"a":       1,
		"a.b":     2,
		"x.y.z":   "deep",
		"x.y.top": true,
		"plain":   "p",
	})

	assert.Equal(t, 1, got["a"])
	assert.Equal(t, 2, got["a.b"])
	assert.Equal(t, "p", got["plain"])
	x, ok := got["x"].(map[string]any)
	require.True(t, ok)
	y, ok := x["y"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "deep", y["z"])
	assert.Equal(t, true, y["top"])

	assert.Equal(t, map[string]any{"a": 1, "a.b": 2, "x.y.z": "deep", "x.y.top": true, "plain": "p"},
		flattenMap(got, ""))
}
