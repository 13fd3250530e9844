// Package cognitive runs the batch committee scoring pipeline: memories are
// enqueued as they're written, drained in batches, scored by an oracle, and
// written back to storage.
package cognitive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/persistent-context/internal/llmscore"
)

// Store is the subset of LibraryStore the evaluator needs to write scores
// back.
type Store interface {
	SetImportance(id string, importance float32) error
}

type job struct {
	memoryID string
	content  string
}

// Evaluator drains a bounded queue of (memory_id, content) entries in
// batches, scores them via a committee oracle, and writes results back.
type Evaluator struct {
	store  Store
	scorer llmscore.Scorer
	logger *slog.Logger

	queue chan job

	batchSize    int
	batchTimeout time.Duration

	mu      sync.RWMutex
	running bool
	done    chan struct{}

	cache *ttlCache
}

// Config tunes batching and caching.
type Config struct {
	QueueCapacity int
	BatchSize     int
	BatchTimeout  time.Duration
	CacheSize     int
	CacheTTL      time.Duration
}

// New builds an Evaluator. It does not start its worker until Start is
// called.
func New(store Store, scorer llmscore.Scorer, cfg Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		store:        store,
		scorer:       scorer,
		logger:       logger,
		queue:        make(chan job, cfg.QueueCapacity),
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
		cache:        newTTLCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

// Start begins the background worker.
func (e *Evaluator) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	e.running = true
	e.done = make(chan struct{})
	go e.run(ctx)

	e.logger.Info("cognitive evaluator started")
	return nil
}

// Stop flushes pending work, shuts down the worker, and waits for it to
// exit.
func (e *Evaluator) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.queue)
	done := e.done
	e.mu.Unlock()

	<-done

	e.logger.Info("cognitive evaluator stopped")
	return nil
}

// Enqueue submits a memory for scoring. It never blocks: when the queue is
// at capacity the job is dropped with a warning, and the producer is not
// slowed down.
func (e *Evaluator) Enqueue(memoryID, content string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.running {
		return nil
	}
	if e.cache.seen(content) {
		return nil
	}

	select {
	case e.queue <- job{memoryID: memoryID, content: content}:
		return nil
	default:
		e.logger.Warn("cognitive queue full, dropping job", "memory_id", memoryID)
		return nil
	}
}

func (e *Evaluator) run(ctx context.Context) {
	defer close(e.done)

	batch := make([]job, 0, e.batchSize)
	timer := time.NewTimer(e.batchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		e.processBatch(ctx, batch, false)
		batch = batch[:0]
	}

	for {
		select {
		case j, ok := <-e.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, j)
			if len(batch) >= e.batchSize {
				flush()
				resetTimer(timer, e.batchTimeout)
			}

		case <-timer.C:
			flush()
			resetTimer(timer, e.batchTimeout)

		case <-ctx.Done():
			flush()
			return
		}
	}
}

func (e *Evaluator) processBatch(ctx context.Context, batch []job, isRetry bool) {
	contents := make([]string, len(batch))
	for i, j := range batch {
		contents[i] = j.content
	}

	scores, err := e.scorer.ScoreBatch(ctx, contents)
	if err != nil || len(scores) != len(batch) {
		if !isRetry {
			e.logger.Warn("cognitive batch scoring failed, retrying once", "error", err)
			e.processBatch(ctx, batch, true)
			return
		}
		e.logger.Warn("cognitive batch scoring failed twice, dropping batch", "error", err, "size", len(batch))
		return
	}

	for i, j := range batch {
		score := scores[i]
		if score < 0 || score > 1 {
			continue
		}
		if err := e.store.SetImportance(j.memoryID, score); err != nil {
			e.logger.Warn("writing back cognitive score failed", "memory_id", j.memoryID, "error", err)
			continue
		}
		e.cache.mark(j.content)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
