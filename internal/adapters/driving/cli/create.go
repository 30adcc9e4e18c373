package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vdb/internal/core/domain"
)

var (
	createDescription string
	createSector      string
	createModel       string
	createOwner       string
	createChunkSize   int
	createGlobs       []string
)

var createCmd = &cobra.Command{
	Use:   "create NAME [FILE...]",
	Short: "Create a vector database from files",
	Long: `Ingests files into a new vector database.

Each file is extracted to text, chunked and embedded. The command returns
once the database is completed; on failure nothing of it is left behind.

Supported formats: plain text, Markdown, HTML, CSV, JSON, PDF and DOCX.

Examples:
  vdb create handbook docs/handbook.pdf docs/faq.md
  vdb create reports --glob 'reports/**/*.pdf' --sector finance`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "free-text description")
	createCmd.Flags().StringVar(&createSector, "sector", "", "category tag")
	createCmd.Flags().StringVar(&createModel, "model", "", "embedding model (default from settings)")
	createCmd.Flags().StringVar(&createOwner, "owner", "", "owning user")
	createCmd.Flags().IntVar(&createChunkSize, "chunk-size", 0, "chunk size in words for sentence_accumulate and token_window (default from settings)")
	createCmd.Flags().StringArrayVarP(&createGlobs, "glob", "g", nil, "add files matching a ** glob (repeatable)")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if databaseService == nil {
		return errors.New("database service not configured")
	}

	paths, err := expandInputs(args[1:], createGlobs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no input files: pass paths or --glob")
	}

	uploads, closeAll, err := openUploads(paths)
	if err != nil {
		return err
	}
	defer closeAll()

	progress := newIngestProgress(cmd.ErrOrStderr(), term.IsTerminal(int(os.Stderr.Fd())))
	defer progress.finish()

	req := domain.CreateDatabaseRequest{
		Name:        args[0],
		Description: createDescription,
		Sector:      createSector,
		Files:       uploads,
		Model:       createModel,
		ChunkSize:   createChunkSize,
		Owner:       createOwner,
		Progress:    progress.update,
	}

	id, err := databaseService.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	progress.finish()

	cmd.Printf("Database created: %s\n", id)
	if db, err := databaseService.Get(context.Background(), id); err == nil {
		cmd.Printf("  Status:    %s\n", db.Status)
		cmd.Printf("  Files:     %d\n", db.FileCount)
		cmd.Printf("  Chunks:    %d\n", db.DocumentCount)
		cmd.Printf("  Size:      %s\n", formatBytes(db.DatabaseSize))
	}
	return nil
}

// expandInputs merges explicit paths with glob matches, dropping duplicates.
func expandInputs(paths, globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		add(filepath.Clean(p))
	}
	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				continue
			}
			add(m)
		}
	}
	return out, nil
}

// openUploads opens every path. Two files may not share a base name since
// uploads are stored by name.
func openUploads(paths []string) ([]domain.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close() //nolint:errcheck // Read-only handles
		}
	}

	names := make(map[string]string)
	uploads := make([]domain.Upload, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if prev, ok := names[name]; ok {
			closeAll()
			return nil, nil, fmt.Errorf("%s and %s share the file name %q", prev, p, name)
		}
		names[name] = p

		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		files = append(files, f)

		info, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			closeAll()
			return nil, nil, fmt.Errorf("%s is a directory (use --glob '%s/**/*')", p, p)
		}

		uploads = append(uploads, domain.Upload{Filename: name, Content: f})
	}
	return uploads, closeAll, nil
}
