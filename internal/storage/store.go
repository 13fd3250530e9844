// Package storage implements LibraryStore, the per-library embedded SQLite
// database: one file per library, fully isolated from every other library.
package storage

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// LibraryStore owns one library's embedded database file: the memory,
// relationship and quantum_signature tables, plus whatever ANN index the
// build supports.
type LibraryStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	dim  int
	path string

	vectorExt bool // true if the vec0 ANN virtual table is available
}

// Open creates or opens the library's database file at path, initializing
// its schema if this is the first open. dim fixes the embedding dimension
// used by the ANN index for the life of this file.
func Open(path string, dim int) (*LibraryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &LibraryStore{db: db, dim: dim, path: path}
	store.vectorExt = initVecTable(db, dim)

	return store, nil
}

// Close closes the underlying database file.
func (s *LibraryStore) Close() error {
	return s.db.Close()
}

// Dim returns the embedding dimension this store was opened with; Upsert
// and Update reject embeddings of any other length.
func (s *LibraryStore) Dim() int {
	return s.dim
}

// HasANN reports whether the vec0 virtual table is backing search. When
// false, search falls back to a brute-force cosine scan over every row.
func (s *LibraryStore) HasANN() bool {
	return s.vectorExt
}

func encodeEmbedding(vec []float32) []byte {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeEmbedding(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}

// cosineSimilarity computes cosine similarity between two equal-length
// vectors, used for the brute-force fallback when vec0 is unavailable.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
