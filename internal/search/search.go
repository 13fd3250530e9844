// Package search implements hybrid recall: ANN candidates fused with
// importance and entanglement boost into a single ranked result set.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/storage"
)

// Store is the subset of LibraryStore hybrid search depends on.
type Store interface {
	AnnSearch(query []float32, k int) ([]storage.AnnCandidate, error)
	TouchAccess(id string) error
	RelatedMemories(id string) ([]*domain.Memory, error)
}

// Graph is the subset of EntanglementGraph hybrid search depends on.
type Graph interface {
	Boost(candidateID string, candidateSet map[string]struct{}) float32
}

// HybridSearch answers recall queries against one library.
type HybridSearch struct {
	store    Store
	graph    Graph
	embedder embedder.Embedder
	alpha    float32

	candidateMultiplier int
	minCandidates       int
}

// Config tunes the candidate pool size and entanglement weight.
type Config struct {
	Alpha               float32
	CandidateMultiplier int
	MinCandidates       int
}

// New builds a HybridSearch over the given store, graph, and embedder.
func New(store Store, g Graph, emb embedder.Embedder, cfg Config) *HybridSearch {
	return &HybridSearch{
		store:               store,
		graph:               g,
		embedder:            emb,
		alpha:               cfg.Alpha,
		candidateMultiplier: cfg.CandidateMultiplier,
		minCandidates:       cfg.MinCandidates,
	}
}

// Search embeds query with task "query", pulls ANN candidates, fuses them
// with importance and entanglement boost, and returns the top k results.
// withRelated opts into a 1-hop entanglement expansion per result; it is
// off by default since it costs one extra query per returned row.
func (h *HybridSearch) Search(ctx context.Context, query string, k int, withRelated bool) ([]domain.RecallResult, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := h.embedder.Embed(ctx, embedder.TaskQuery, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	kCandidates := h.candidateMultiplier * k
	if kCandidates < h.minCandidates {
		kCandidates = h.minCandidates
	}

	candidates, err := h.store.AnnSearch(queryVec, kCandidates)
	if err != nil {
		return nil, fmt.Errorf("ann search: %w", err)
	}

	candidateSet := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		candidateSet[c.Memory.ID] = struct{}{}
	}

	results := make([]domain.RecallResult, 0, len(candidates))
	for _, c := range candidates {
		boost := h.graph.Boost(c.Memory.ID, candidateSet)
		effectiveImportance := clamp01(c.Memory.Importance * (1 + h.alpha*boost))
		score := c.Similarity * effectiveImportance

		results = append(results, domain.RecallResult{
			ID:         c.Memory.ID,
			Content:    c.Memory.Content,
			CreatedAt:  c.Memory.CreatedAt,
			Similarity: c.Similarity,
			Importance: effectiveImportance,
			Score:      score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
		go func(id string) { _ = h.store.TouchAccess(id) }(results[i].ID)

		if withRelated {
			related, err := h.store.RelatedMemories(results[i].ID)
			if err != nil {
				return nil, fmt.Errorf("loading related memories for %q: %w", results[i].ID, err)
			}
			results[i].Related = related
		}
	}

	return results, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
