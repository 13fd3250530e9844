package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/google/uuid"
)

// Upsert inserts node, or if a row with the same ContentHash already exists,
// updates it in place: UpdatedAt and Embedding are replaced, Importance is
// reset to 1.0, and the original ID is preserved. The final row (with its
// resolved ID) is returned.
func (s *LibraryStore) Upsert(node *domain.Memory) (*domain.Memory, error) {
	if len(node.Embedding) != s.dim {
		return nil, domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("embedding dim %d does not match library dim %d", len(node.Embedding), s.dim), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	var existingID string
	var existingSeq int64
	err := s.db.QueryRow(`SELECT id, seq FROM memory WHERE content_hash = ?`, node.ContentHash).Scan(&existingID, &existingSeq)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if node.ID == "" {
			node.ID = uuid.NewString()
		}
		node.CreatedAt = now
		node.UpdatedAt = now
		node.Importance = 1.0

		tagsJSON, _ := json.Marshal(node.Tags)
		keywordsJSON, _ := json.Marshal(node.Keywords)
		customJSON, _ := json.Marshal(node.Custom)

		res, err := s.db.Exec(`
			INSERT INTO memory (id, content, content_hash, memory_type, created_at, updated_at, importance, embedding, tags, keywords, custom)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			node.ID, node.Content, node.ContentHash, string(node.MemoryType),
			node.CreatedAt.Format(time.RFC3339Nano), node.UpdatedAt.Format(time.RFC3339Nano),
			node.Importance, encodeEmbedding(node.Embedding), string(tagsJSON), string(keywordsJSON), string(customJSON),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting memory: %w", err)
		}
		seq, _ := res.LastInsertId()
		if s.vectorExt {
			_, _ = s.db.Exec(`INSERT INTO vec_memory(rowid, embedding) VALUES (?, ?)`, seq, encodeEmbedding(node.Embedding))
		}
		return node, nil

	case err != nil:
		return nil, fmt.Errorf("checking content_hash: %w", err)

	default:
		node.ID = existingID
		node.UpdatedAt = now
		node.Importance = 1.0

		tagsJSON, _ := json.Marshal(node.Tags)
		keywordsJSON, _ := json.Marshal(node.Keywords)
		customJSON, _ := json.Marshal(node.Custom)

		_, err := s.db.Exec(`
			UPDATE memory SET content = ?, memory_type = ?, updated_at = ?, importance = ?, embedding = ?, tags = ?, keywords = ?, custom = ?
			WHERE id = ?`,
			node.Content, string(node.MemoryType), node.UpdatedAt.Format(time.RFC3339Nano),
			node.Importance, encodeEmbedding(node.Embedding), string(tagsJSON), string(keywordsJSON), string(customJSON),
			node.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating memory: %w", err)
		}
		if s.vectorExt {
			_, _ = s.db.Exec(`UPDATE vec_memory SET embedding = ? WHERE rowid = ?`, encodeEmbedding(node.Embedding), existingSeq)
		}

		return s.getLocked(node.ID)
	}
}

// Get returns the memory with the given id, or domain.ErrNotFound.
func (s *LibraryStore) Get(id string) (*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

func (s *LibraryStore) getLocked(id string) (*domain.Memory, error) {
	row := s.db.QueryRow(`
		SELECT id, content, content_hash, memory_type, created_at, updated_at, last_accessed_at, importance, embedding, tags, keywords, custom
		FROM memory WHERE id = ?`, id)
	return scanMemory(row)
}

// Delete removes the memory with the given id. Returns false if it did not
// exist.
func (s *LibraryStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64
	if err := s.db.QueryRow(`SELECT seq FROM memory WHERE id = ?`, id).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("looking up memory: %w", err)
	}

	if _, err := s.db.Exec(`DELETE FROM memory WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting memory: %w", err)
	}
	if s.vectorExt {
		_, _ = s.db.Exec(`DELETE FROM vec_memory WHERE rowid = ?`, seq)
	}
	_, _ = s.db.Exec(`DELETE FROM relationship WHERE source_id = ? OR target_id = ?`, id, id)
	_, _ = s.db.Exec(`DELETE FROM quantum_signature WHERE memory_id = ?`, id)

	return true, nil
}

// Update replaces the stored fields of an existing memory by ID.
func (s *LibraryStore) Update(node *domain.Memory) (*domain.Memory, error) {
	if len(node.Embedding) != s.dim {
		return nil, domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("embedding dim %d does not match library dim %d", len(node.Embedding), s.dim), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64
	if err := s.db.QueryRow(`SELECT seq FROM memory WHERE id = ?`, node.ID).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "memory not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("looking up memory: %w", err)
	}

	node.UpdatedAt = time.Now().UTC()
	tagsJSON, _ := json.Marshal(node.Tags)
	keywordsJSON, _ := json.Marshal(node.Keywords)
	customJSON, _ := json.Marshal(node.Custom)

	_, err := s.db.Exec(`
		UPDATE memory SET content = ?, memory_type = ?, updated_at = ?, importance = ?, embedding = ?, tags = ?, keywords = ?, custom = ?
		WHERE id = ?`,
		node.Content, string(node.MemoryType), node.UpdatedAt.Format(time.RFC3339Nano),
		node.Importance, encodeEmbedding(node.Embedding), string(tagsJSON), string(keywordsJSON), string(customJSON),
		node.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating memory: %w", err)
	}
	if s.vectorExt {
		_, _ = s.db.Exec(`UPDATE vec_memory SET embedding = ? WHERE rowid = ?`, encodeEmbedding(node.Embedding), seq)
	}

	return s.getLocked(node.ID)
}

// SetImportance overwrites a memory's importance score directly, used by
// the cognitive evaluator's batch write-back.
func (s *LibraryStore) SetImportance(id string, importance float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE memory SET importance = ? WHERE id = ?`, importance, id)
	return err
}

// TouchAccess records that a memory was just recalled, used by hybrid
// search's fire-and-forget last_accessed_at update.
func (s *LibraryStore) TouchAccess(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE memory SET last_accessed_at = ? WHERE id = ?`, time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

// Count returns the total number of memories in the library.
func (s *LibraryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memory`).Scan(&n)
	return n, err
}

// CountByType returns the number of memories of the given type.
func (s *LibraryStore) CountByType(t domain.MemoryType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memory WHERE memory_type = ?`, string(t)).Scan(&n)
	return n, err
}

// AnnCandidate is one hit from an approximate (or brute-force) nearest
// neighbor scan, before hybrid fusion.
type AnnCandidate struct {
	Memory     *domain.Memory
	Similarity float32
}

// AnnSearch returns up to k candidates nearest to query by cosine
// similarity. It uses the vec0 index when available, falling back to a
// full table scan otherwise.
func (s *LibraryStore) AnnSearch(query []float32, k int) ([]AnnCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vectorExt {
		return s.annSearchVec(query, k)
	}
	return s.annSearchScan(query, k)
}

func (s *LibraryStore) annSearchVec(query []float32, k int) ([]AnnCandidate, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.content, m.content_hash, m.memory_type, m.created_at, m.updated_at, m.last_accessed_at, m.importance, m.embedding, m.tags, m.keywords, m.custom,
			vec_distance_cosine(v.embedding, ?) AS dist
		FROM vec_memory v JOIN memory m ON m.seq = v.rowid
		ORDER BY dist ASC LIMIT ?`, encodeEmbedding(query), k)
	if err != nil {
		return nil, fmt.Errorf("vec ann search: %w", err)
	}
	defer rows.Close()

	var out []AnnCandidate
	for rows.Next() {
		mem, dist, err := scanMemoryWithDistance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, AnnCandidate{Memory: mem, Similarity: 1 - dist})
	}
	return out, rows.Err()
}

func (s *LibraryStore) annSearchScan(query []float32, k int) ([]AnnCandidate, error) {
	rows, err := s.db.Query(`
		SELECT id, content, content_hash, memory_type, created_at, updated_at, last_accessed_at, importance, embedding, tags, keywords, custom
		FROM memory`)
	if err != nil {
		return nil, fmt.Errorf("scanning memory table: %w", err)
	}
	defer rows.Close()

	var all []AnnCandidate
	for rows.Next() {
		mem, err := scanMemoryRow(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, AnnCandidate{Memory: mem, Similarity: cosineSimilarity(query, mem.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCandidatesDesc(all)
	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*domain.Memory, error) {
	mem, err := scanMemoryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewError(domain.KindNotFound, "memory not found", domain.ErrNotFound)
	}
	return mem, err
}

func scanMemoryRow(row rowScanner) (*domain.Memory, error) {
	var (
		id, content, memType, createdAt, updatedAt string
		lastAccessedAt                              sql.NullString
		importance                                   float32
		embeddingBlob, tagsJSON, keywordsJSON, customJSON []byte
		contentHash                                  int64
	)

	if err := row.Scan(&id, &content, &contentHash, &memType, &createdAt, &updatedAt, &lastAccessedAt,
		&importance, &embeddingBlob, &tagsJSON, &keywordsJSON, &customJSON); err != nil {
		return nil, err
	}

	return hydrateMemory(id, content, contentHash, memType, createdAt, updatedAt, lastAccessedAt,
		importance, embeddingBlob, tagsJSON, keywordsJSON, customJSON)
}

func scanMemoryWithDistance(row rowScanner) (*domain.Memory, float32, error) {
	var (
		id, content, memType, createdAt, updatedAt string
		lastAccessedAt                              sql.NullString
		importance                                   float32
		embeddingBlob, tagsJSON, keywordsJSON, customJSON []byte
		contentHash                                  int64
		dist                                          float32
	)

	if err := row.Scan(&id, &content, &contentHash, &memType, &createdAt, &updatedAt, &lastAccessedAt,
		&importance, &embeddingBlob, &tagsJSON, &keywordsJSON, &customJSON, &dist); err != nil {
		return nil, 0, err
	}

	mem, err := hydrateMemory(id, content, contentHash, memType, createdAt, updatedAt, lastAccessedAt,
		importance, embeddingBlob, tagsJSON, keywordsJSON, customJSON)
	return mem, dist, err
}

func hydrateMemory(id, content string, contentHash int64, memType, createdAt, updatedAt string, lastAccessedAt sql.NullString,
	importance float32, embeddingBlob, tagsJSON, keywordsJSON, customJSON []byte) (*domain.Memory, error) {

	mem := &domain.Memory{
		ID:          id,
		Content:     content,
		ContentHash: contentHash,
		MemoryType:  domain.MemoryType(memType),
		Importance:  importance,
		Embedding:   decodeEmbedding(embeddingBlob),
	}

	var err error
	if mem.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if mem.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if lastAccessedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastAccessedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_accessed_at: %w", err)
		}
		mem.LastAccessedAt = &t
	}

	_ = json.Unmarshal(tagsJSON, &mem.Tags)
	_ = json.Unmarshal(keywordsJSON, &mem.Keywords)
	_ = json.Unmarshal(customJSON, &mem.Custom)

	return mem, nil
}

func sortCandidatesDesc(candidates []AnnCandidate) {
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Similarity > candidates[j-1].Similarity; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}
