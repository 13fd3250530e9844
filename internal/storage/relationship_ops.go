package storage

import (
	"fmt"
	"time"

	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/google/uuid"
)

// AddEdge inserts a directed relationship edge between two memories in this
// library. Strength is clamped to [0,1] before it is stored.
func (s *LibraryStore) AddEdge(edge *domain.EntanglementEdge) (*domain.EntanglementEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.Strength < 0 {
		edge.Strength = 0
	} else if edge.Strength > 1 {
		edge.Strength = 1
	}
	edge.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO relationship (id, source_id, target_id, kind, strength, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		edge.ID, edge.SourceID, edge.TargetID, string(edge.Kind), edge.Strength, edge.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}
	return edge, nil
}

// LoadAllEntanglementEdges returns every `entangled` edge in the library,
// used by EntanglementGraph to rebuild its in-memory adjacency map.
func (s *LibraryStore) LoadAllEntanglementEdges() ([]*domain.EntanglementEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source_id, target_id, kind, strength, created_at
		FROM relationship WHERE kind = ?`, string(domain.RelationshipEntangled))
	if err != nil {
		return nil, fmt.Errorf("loading entanglement edges: %w", err)
	}
	defer rows.Close()

	var edges []*domain.EntanglementEdge
	for rows.Next() {
		var e domain.EntanglementEdge
		var kind, createdAt string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &kind, &e.Strength, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		e.Kind = domain.RelationshipKind(kind)
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing relationship created_at: %w", err)
		}
		e.CreatedAt = t
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// RelatedMemories returns the memories directly connected to id by any
// relationship edge (either direction), used by recall's opt-in 1-hop
// expansion.
func (s *LibraryStore) RelatedMemories(id string) ([]*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT CASE WHEN source_id = ? THEN target_id ELSE source_id END
		FROM relationship WHERE source_id = ? OR target_id = ?`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying related ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var neighborID string
		if err := rows.Scan(&neighborID); err != nil {
			return nil, fmt.Errorf("scanning related id: %w", err)
		}
		ids = append(ids, neighborID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var related []*domain.Memory
	for _, nid := range ids {
		mem, err := s.getLocked(nid)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				continue
			}
			return nil, err
		}
		related = append(related, mem)
	}
	return related, nil
}

// UpsertQuantumSignature stores or replaces the 1:1 cognitive fingerprint
// for a memory.
func (s *LibraryStore) UpsertQuantumSignature(sig *domain.QuantumSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO quantum_signature (memory_id, fingerprint, entropy, decoherence_rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(memory_id) DO UPDATE SET fingerprint = excluded.fingerprint, entropy = excluded.entropy, decoherence_rate = excluded.decoherence_rate`,
		sig.MemoryID, encodeEmbedding(sig.Fingerprint), sig.Entropy, sig.DecoherenceRate,
	)
	if err != nil {
		return fmt.Errorf("upserting quantum signature: %w", err)
	}
	return nil
}

// ApplyDecay multiplies every memory's importance by exp(-lambda*hoursElapsed)
// since its last update, clamped to floor, in a single bounded scan. It
// returns the number of rows touched.
func (s *LibraryStore) ApplyDecay(lambda float64, floor float32, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, importance, updated_at FROM memory`)
	if err != nil {
		return 0, fmt.Errorf("scanning memory for decay: %w", err)
	}

	type pending struct {
		id         string
		importance float32
	}
	var updates []pending

	for rows.Next() {
		var id, updatedAt string
		var importance float32
		if err := rows.Scan(&id, &importance, &updatedAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning decay row: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("parsing updated_at: %w", err)
		}
		hours := now.Sub(t).Hours()
		if hours <= 0 {
			continue
		}
		decayed := decayImportance(importance, lambda, floor, hours)
		if decayed != importance {
			updates = append(updates, pending{id: id, importance: decayed})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, u := range updates {
		if _, err := s.db.Exec(`UPDATE memory SET importance = ? WHERE id = ?`, u.importance, u.id); err != nil {
			return 0, fmt.Errorf("applying decay to %s: %w", u.id, err)
		}
	}

	return len(updates), nil
}
