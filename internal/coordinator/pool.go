package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/search"
)

// Pool lazily creates and caches one Coordinator per library name. Creation
// is a double-checked lookup with a per-key init mutex, so concurrent first
// requests for the same new library never thunder into duplicate opens.
type Pool struct {
	dataDir  string
	embedder embedder.Embedder
	scorer   llmscore.Scorer
	searchCfg search.Config
	cognCfg   cognitive.Config
	decayCfg  decay.Config
	logger    *slog.Logger

	mu           sync.RWMutex
	coordinators map[string]*Coordinator
	initMu       map[string]*sync.Mutex
	initMuGuard  sync.Mutex
}

// NewPool builds an empty pool; coordinators are created on first access.
func NewPool(dataDir string, emb embedder.Embedder, scorer llmscore.Scorer, searchCfg search.Config, cognCfg cognitive.Config, decayCfg decay.Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		dataDir:      dataDir,
		embedder:     emb,
		scorer:       scorer,
		searchCfg:    searchCfg,
		cognCfg:      cognCfg,
		decayCfg:     decayCfg,
		logger:       logger,
		coordinators: make(map[string]*Coordinator),
		initMu:       make(map[string]*sync.Mutex),
	}
}

// Get returns the Coordinator for name, creating it (and its database file)
// on first access.
func (p *Pool) Get(ctx context.Context, name string) (*Coordinator, error) {
	if err := domain.ValidateLibraryName(name); err != nil {
		return nil, err
	}

	p.mu.RLock()
	c, ok := p.coordinators[name]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	initLock := p.lockFor(name)
	initLock.Lock()
	defer initLock.Unlock()

	p.mu.RLock()
	c, ok = p.coordinators[name]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	dbPath := filepath.Join(p.dataDir, name+".db")
	c, err := Open(ctx, name, dbPath, p.embedder, p.scorer, p.searchCfg, p.cognCfg, p.decayCfg, p.logger)
	if err != nil {
		return nil, fmt.Errorf("opening coordinator for library %q: %w", name, err)
	}

	p.mu.Lock()
	p.coordinators[name] = c
	p.mu.Unlock()

	return c, nil
}

func (p *Pool) lockFor(name string) *sync.Mutex {
	p.initMuGuard.Lock()
	defer p.initMuGuard.Unlock()

	m, ok := p.initMu[name]
	if !ok {
		m = &sync.Mutex{}
		p.initMu[name] = m
	}
	return m
}

// ListLibraries scans the data directory for *.db files and returns their
// stems, sorted. It never opens any database.
func (p *Pool) ListLibraries() ([]string, error) {
	entries, err := os.ReadDir(p.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".db") {
			names = append(names, strings.TrimSuffix(e.Name(), ".db"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ShutdownAll drains the coordinator map and shuts each one down.
func (p *Pool) ShutdownAll() {
	p.mu.Lock()
	coordinators := p.coordinators
	p.coordinators = make(map[string]*Coordinator)
	p.mu.Unlock()

	for name, c := range coordinators {
		if err := c.Shutdown(); err != nil {
			p.logger.Warn("coordinator shutdown failed", "library", name, "error", err)
		}
	}
}
