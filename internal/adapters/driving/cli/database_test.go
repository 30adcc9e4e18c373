package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

// createDatabase ingests two small files and returns the new ID.
func createDatabase(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	a := writeFile(t, dir, "cats.txt", "Cats purr when content.")
	b := writeFile(t, dir, "dogs.md", "# Dogs\n\nDogs bark at strangers and chase balls in the park.")

	args := append([]string{"create", "pets", a, b}, extra...)
	out, err := execute(t, args...)
	require.NoError(t, err, out)

	for _, line := range strings.Split(out, "\n") {
		if id, ok := strings.CutPrefix(line, "Database created: "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no database id in output: %s", out)
	return ""
}

func TestCreateCmd_RequiresName(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestCreateCmd_NoFiles(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "create", "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestCreateCmd_CreatesDatabase(t *testing.T) {
	setupTestServices(t)

	id := createDatabase(t, "--sector", "animals", "--owner", "alice")
	require.NotEmpty(t, id)

	out, err := execute(t, "info", id, "--output", "json")
	require.NoError(t, err)

	var db domain.Database
	require.NoError(t, json.Unmarshal([]byte(out), &db))
	assert.Equal(t, "pets", db.Name)
	assert.Equal(t, "animals", db.Sector)
	assert.Equal(t, "alice", db.CreatedBy)
	assert.Equal(t, domain.StatusCompleted, db.Status)
	assert.Equal(t, 2, db.FileCount)
	assert.Positive(t, db.DocumentCount)
}

func TestCreateCmd_Glob(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeFile(t, dir, "a/one.txt", "First file.")
	writeFile(t, dir, "a/b/two.txt", "Second file.")
	writeFile(t, dir, "a/skip.bin", "ignored")

	out, err := execute(t, "create", "globbed", "--glob", dir+"/**/*.txt")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Files:     2")
}

func TestCreateCmd_UnsupportedType(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, t.TempDir(), "image.png", "\x89PNG")

	_, err := execute(t, "create", "bad", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No databases found.")
}

func TestCreateCmd_DuplicateNames(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "x/notes.txt", "one")
	b := writeFile(t, dir, "y/notes.txt", "two")

	_, err := execute(t, "create", "dup", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share the file name")
}

func TestStatusCmd(t *testing.T) {
	setupTestServices(t)
	id := createDatabase(t)

	out, err := execute(t, "status", id)
	require.NoError(t, err)
	assert.Equal(t, "completed\n", out)

	out, err = execute(t, "status", "missing")
	require.NoError(t, err)
	assert.Equal(t, "error\n", out)
}

func TestListCmd_Formats(t *testing.T) {
	setupTestServices(t)
	id := createDatabase(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Total: 1 databases")

	out, err = execute(t, "list", "--output", "yaml")
	require.NoError(t, err)
	var dbs []domain.Database
	require.NoError(t, yaml.Unmarshal([]byte(out), &dbs))
	require.Len(t, dbs, 1)
	assert.Equal(t, id, dbs[0].ID)

	_, err = execute(t, "list", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestListCmd_Owner(t *testing.T) {
	setupTestServices(t)
	createDatabase(t, "--owner", "alice")

	out, err := execute(t, "list", "--owner", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "No databases found.")

	out, err = execute(t, "list", "--owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1 databases")
}

func TestUpdateCmd(t *testing.T) {
	setupTestServices(t)
	id := createDatabase(t)

	_, err := execute(t, "update", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	out, err := execute(t, "update", id, "--name", "animals")
	require.NoError(t, err)
	assert.Contains(t, out, "updated")

	out, err = execute(t, "info", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        animals")

	_, err = execute(t, "update", "missing", "--name", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDeleteCmd(t *testing.T) {
	setupTestServices(t)
	id := createDatabase(t)

	out, err := execute(t, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	_, err = execute(t, "info", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again succeeds.
	_, err = execute(t, "delete", id)
	assert.NoError(t, err)
}

func TestDatabaseCmds_NoService(t *testing.T) {
	SetServices(Services{})

	for _, args := range [][]string{
		{"status", "x"}, {"info", "x"}, {"list"}, {"delete", "x"}, {"update", "x", "--name", "n"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "not configured")
	}
}
