package commands

import (
	"time"

	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/coordinator"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/search"
)

// newPool builds a Pool against dataDir with the same defaults memoryd
// would use, for one-shot CLI operations.
func newPool() *coordinator.Pool {
	emb := embedder.NewHashProjection(384)
	scorer := llmscore.NewHeuristic()

	return coordinator.NewPool(
		dataDir, emb, scorer,
		search.Config{Alpha: 0.25, CandidateMultiplier: 4, MinCandidates: 32},
		cognitive.Config{QueueCapacity: 256, BatchSize: 16, BatchTimeout: 2 * time.Second, CacheSize: 10000, CacheTTL: 5 * time.Minute},
		decay.Config{Lambda: 0.1, Floor: 0.05, Interval: time.Hour},
		nil,
	)
}
