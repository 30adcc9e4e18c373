package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vdb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

const (
	fileExt      = ".db"
	infoDimsKey  = "dimensions"
	emptyMetaDoc = "{}"
)

var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore keeps one SQLite file per collection under a directory.
type VectorStore struct {
	dir string

	mu   sync.Mutex
	open map[string]*sql.DB
}

// NewVectorStore creates a vector store rooted at dir.
func NewVectorStore(dir string) (*VectorStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: collection directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating collection directory: %w", err)
	}
	return &VectorStore{
		dir:  dir,
		open: make(map[string]*sql.DB),
	}, nil
}

// Dir returns the directory holding the collection files.
func (s *VectorStore) Dir() string {
	return s.dir
}

// Close closes every open collection.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, db := range s.open {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing collection %s: %w", name, err))
		}
		delete(s.open, name)
	}
	return errors.Join(errs...)
}

// ==================== Collections ====================

// CreateCollection creates an empty collection file.
func (s *VectorStore) CreateCollection(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.open[name]; ok || fileExists(s.path(name)) {
		return fmt.Errorf("%w: collection %s", domain.ErrAlreadyExists, name)
	}

	db, err := openDB(ctx, s.path(name))
	if err != nil {
		_ = s.removeFiles(name)
		return err
	}
	s.open[name] = db
	return nil
}

// GetCollection describes a collection.
func (s *VectorStore) GetCollection(ctx context.Context, name string) (*domain.Collection, error) {
	db, err := s.handle(ctx, name)
	if err != nil {
		return nil, err
	}

	count, err := countRecords(ctx, db)
	if err != nil {
		return nil, err
	}
	dims, err := dimensions(ctx, db)
	if err != nil {
		return nil, err
	}

	return &domain.Collection{Name: name, Count: count, Dimensions: dims}, nil
}

// DeleteCollection closes and removes a collection's files.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, cached := s.open[name]
	if cached {
		if err := db.Close(); err != nil {
			return fmt.Errorf("closing collection %s: %w", name, err)
		}
		delete(s.open, name)
	}

	if !cached && !fileExists(s.path(name)) {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return s.removeFiles(name)
}

// ==================== Records ====================

// Add inserts records in one transaction. All vectors must share the
// collection's dimensionality, which is fixed by the first insert.
func (s *VectorStore) Add(ctx context.Context, name string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	db, err := s.handle(ctx, name)
	if err != nil {
		return err
	}

	dims, err := dimensions(ctx, db)
	if err != nil {
		return err
	}
	if dims == 0 {
		dims = len(records[0].Embedding)
	}
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has no id", domain.ErrInvalidInput, i)
		}
		if len(r.Embedding) == 0 || len(r.Embedding) != dims {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrInvalidInput, r.ID, len(r.Embedding), dims)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collection_info (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		infoDimsKey, strconv.Itoa(dims),
	); err != nil {
		return fmt.Errorf("saving dimensions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, document, metadata, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metaJSON := emptyMetaDoc
		if len(r.Metadata) > 0 {
			b, err := json.Marshal(r.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata: %w", err)
			}
			metaJSON = string(b)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Document, metaJSON, float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns the k nearest records by squared Euclidean distance.
func (s *VectorStore) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.VectorMatch, error) {
	db, err := s.handle(ctx, name)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.VectorMatch{}, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT id, document, metadata, embedding FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var (
			id, document, metaJSON string
			blob                   []byte
		)
		if err := rows.Scan(&id, &document, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
				domain.ErrInvalidInput, len(vector), len(embedding))
		}

		var meta map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}

		matches = append(matches, domain.VectorMatch{
			ID:       id,
			Document: document,
			Metadata: meta,
			Distance: squaredL2(vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	if matches == nil {
		matches = []domain.VectorMatch{}
	}
	return matches, nil
}

// Count returns the number of records in a collection.
func (s *VectorStore) Count(ctx context.Context, name string) (int, error) {
	db, err := s.handle(ctx, name)
	if err != nil {
		return 0, err
	}
	return countRecords(ctx, db)
}

// Size returns the bytes used by the collection's database files.
func (s *VectorStore) Size(_ context.Context, name string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, name+fileExt+"*"))
	if err != nil {
		return 0, fmt.Errorf("listing collection files: %w", err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	var total int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("stat %s: %w", filepath.Base(m), err)
		}
		total += info.Size()
	}
	return total, nil
}

// ==================== Internals ====================

func (s *VectorStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// handle returns the open connection for a collection, opening an existing
// file on first use.
func (s *VectorStore) handle(ctx context.Context, name string) (*sql.DB, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.open[name]; ok {
		return db, nil
	}
	if !fileExists(s.path(name)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	db, err := openDB(ctx, s.path(name))
	if err != nil {
		return nil, err
	}
	s.open[name] = db
	return db, nil
}

func (s *VectorStore) removeFiles(name string) error {
	var errs []error
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(s.path(name) + suffix); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("removing %s%s: %w", name+fileExt, suffix, err))
		}
	}
	return errors.Join(errs...)
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys embed.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func countRecords(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func dimensions(ctx context.Context, db *sql.DB) (int, error) {
	var val string
	err := db.QueryRowContext(ctx, "SELECT value FROM collection_info WHERE key = ?", infoDimsKey).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimensions: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing dimensions %q: %w", val, err)
	}
	return n, nil
}

// validateName rejects names that would escape the collection directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, name)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ==================== Helper Functions ====================

// squaredL2 returns the squared Euclidean distance between a and b.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
