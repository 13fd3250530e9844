// Package coordinator composes one library's storage, entanglement graph,
// cognitive evaluator, and decay worker into a single facade, and pools
// those facades per library name.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/graph"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/search"
	"github.com/JaimeStill/persistent-context/internal/storage"
	"github.com/google/uuid"
)

// Coordinator owns every component backing one library: its database file,
// in-memory entanglement graph, cognitive scoring pipeline, and decay
// sweeper.
type Coordinator struct {
	name     string
	store    *storage.LibraryStore
	graph    *graph.EntanglementGraph
	search   *search.HybridSearch
	cogn     *cognitive.Evaluator
	decayW   *decay.Worker
	embedder embedder.Embedder
	logger   *slog.Logger
}

// Open builds a Coordinator for one library: opens its database file, loads
// the entanglement graph, and starts its background workers.
func Open(
	ctx context.Context,
	name, dbPath string,
	emb embedder.Embedder,
	scorer llmscore.Scorer,
	searchCfg search.Config,
	cognCfg cognitive.Config,
	decayCfg decay.Config,
	logger *slog.Logger,
) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.Open(dbPath, emb.Dim())
	if err != nil {
		return nil, fmt.Errorf("opening library store for %q: %w", name, err)
	}

	g := graph.New()
	if edges, err := store.LoadAllEntanglementEdges(); err != nil {
		logger.Warn("entanglement graph failed to load, recall will run without boost", "library", name, "error", err)
	} else {
		graphEdges := make([]graph.Edge, len(edges))
		for i, e := range edges {
			graphEdges[i] = graph.Edge{SourceID: e.SourceID, TargetID: e.TargetID, Strength: e.Strength}
		}
		g.Rebuild(graphEdges)
	}

	hs := search.New(store, g, emb, searchCfg)

	cogn := cognitive.New(store, scorer, cognCfg, logger.With("component", "cognitive", "library", name))
	if err := cogn.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("starting cognitive evaluator for %q: %w", name, err)
	}

	decayWorker := decay.New(store, decayCfg, logger.With("component", "decay", "library", name))
	if err := decayWorker.Start(ctx); err != nil {
		cogn.Stop()
		store.Close()
		return nil, fmt.Errorf("starting decay worker for %q: %w", name, err)
	}

	return &Coordinator{
		name:     name,
		store:    store,
		graph:    g,
		search:   hs,
		cogn:     cogn,
		decayW:   decayWorker,
		embedder: emb,
		logger:   logger,
	}, nil
}

// AddMemory embeds content with task "document", upserts it via the
// library store, and enqueues it on the cognitive evaluator. Concurrent
// calls with identical content never create duplicates: the store's unique
// index is the sole authority, this method never pre-checks existence.
func (c *Coordinator) AddMemory(ctx context.Context, content string, memType domain.MemoryType) (*domain.Memory, error) {
	vec, err := c.embedder.Embed(ctx, embedder.TaskDocument, content)
	if err != nil {
		return nil, fmt.Errorf("embedding content: %w", err)
	}

	mem := &domain.Memory{
		ID:          uuid.NewString(),
		Content:     content,
		ContentHash: contentHash(content),
		MemoryType:  memType,
		Embedding:   vec,
	}

	saved, err := c.store.Upsert(mem)
	if err != nil {
		return nil, err
	}

	if err := c.cogn.Enqueue(saved.ID, saved.Content); err != nil {
		c.logger.Warn("failed to enqueue memory for cognitive scoring", "memory_id", saved.ID, "error", err)
	}

	return saved, nil
}

// SearchMemories delegates to HybridSearch. withRelated opts into a 1-hop
// entanglement expansion per result.
func (c *Coordinator) SearchMemories(ctx context.Context, query string, limit int, withRelated bool) ([]domain.RecallResult, error) {
	return c.search.Search(ctx, query, limit, withRelated)
}

// Store exposes the underlying LibraryStore for components (session
// manager, admin endpoints) that need direct read access.
func (c *Coordinator) Store() *storage.LibraryStore {
	return c.store
}

// Shutdown stops the background workers, flushes pending evaluation
// batches, and closes the database file.
func (c *Coordinator) Shutdown() error {
	if err := c.decayW.Stop(); err != nil {
		c.logger.Warn("decay worker stop failed", "library", c.name, "error", err)
	}
	if err := c.cogn.Stop(); err != nil {
		c.logger.Warn("cognitive evaluator stop failed", "library", c.name, "error", err)
	}
	return c.store.Close()
}

func contentHash(content string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= 1099511628211
	}
	return int64(h)
}
