// Package session tracks long-running memorize ingests so tool callers get
// an immediate session id and poll for status instead of blocking.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/persistent-context/internal/content"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/google/uuid"
)

// Adder is the subset of Coordinator a session needs to persist its result.
type Adder interface {
	AddMemory(ctx context.Context, content string, memType domain.MemoryType) (*domain.Memory, error)
}

// StatusResponse is the polled view of a session's progress.
type StatusResponse struct {
	SessionID string
	Status    domain.SessionStatus
	Library   string
	Progress  domain.Progress
	RuntimeMS int64
	MemoryID  string
	Error     string
}

type session struct {
	id        string
	library   string
	status    domain.SessionStatus
	progress  domain.Progress
	memoryID  string
	errMsg    string
	startedAt time.Time
	lastReadAt time.Time
	cancel    context.CancelFunc
}

// Manager allocates sessions, runs their ingest in the background, and
// garbage-collects terminal sessions after their retention window.
type Manager struct {
	resolver *content.Resolver
	logger   *slog.Logger

	gcInterval         time.Duration
	completedRetention time.Duration
	failedRetention    time.Duration

	mu       sync.RWMutex
	sessions map[string]*session

	stop chan struct{}
	done chan struct{}
}

// Config tunes the GC worker's interval and retention windows.
type Config struct {
	GCInterval         time.Duration
	CompletedRetention time.Duration
	FailedRetention    time.Duration
}

// New builds a Manager. Call StartGC to begin the background collector.
func New(resolver *content.Resolver, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		resolver:           resolver,
		logger:             logger,
		gcInterval:         cfg.GCInterval,
		completedRetention: cfg.CompletedRetention,
		failedRetention:    cfg.FailedRetention,
		sessions:           make(map[string]*session),
	}
}

// StartGC begins the periodic garbage collector.
func (m *Manager) StartGC(ctx context.Context) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.runGC(ctx)
}

// StopGC signals the collector to exit and waits for it.
func (m *Manager) StopGC() {
	m.mu.Lock()
	stop := m.stop
	done := m.done
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (m *Manager) runGC(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collect()
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) collect() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		switch s.status {
		case domain.SessionCompleted:
			if now.Sub(s.lastReadAt) > m.completedRetention {
				delete(m.sessions, id)
			}
		case domain.SessionFailed:
			if now.Sub(s.lastReadAt) > m.failedRetention {
				delete(m.sessions, id)
			}
		}
	}
}

// Start allocates a session, spawns its background ingest, and returns the
// session id immediately.
func (m *Manager) Start(parent context.Context, library, rawContent string, add Adder) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(parent)

	s := &session{
		id:         id,
		library:    library,
		status:     domain.SessionInProgress,
		progress:   domain.Progress{Stage: domain.StageInitializing},
		startedAt:  time.Now(),
		lastReadAt: time.Now(),
		cancel:     cancel,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	go m.run(ctx, s, rawContent, add)

	return id
}

func (m *Manager) run(ctx context.Context, s *session, rawContent string, add Adder) {
	m.setStage(s.id, domain.StageLoading)
	if ctx.Err() != nil {
		m.fail(s.id, "cancelled")
		return
	}

	resolved, err := m.resolver.Resolve(ctx, rawContent)
	if err != nil {
		m.fail(s.id, err.Error())
		return
	}

	m.setLoadProgress(s.id, resolved.FilesLoaded, resolved.TotalSizeBytes)

	m.setStage(s.id, domain.StageEmbedding)
	if ctx.Err() != nil {
		m.fail(s.id, "cancelled")
		return
	}

	m.setStage(s.id, domain.StageStoring)
	if ctx.Err() != nil {
		m.fail(s.id, "cancelled")
		return
	}

	mem, err := add.AddMemory(ctx, resolved.Body, domain.TypeEpisodic)
	if err != nil {
		m.fail(s.id, err.Error())
		return
	}

	m.mu.Lock()
	if cur, ok := m.sessions[s.id]; ok {
		cur.status = domain.SessionCompleted
		cur.progress.Stage = domain.StageCompleted
		cur.memoryID = mem.ID
		cur.lastReadAt = time.Now()
	}
	m.mu.Unlock()
}

func (m *Manager) setStage(id, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.progress.Stage = stage
	}
}

func (m *Manager) setLoadProgress(id string, filesLoaded int, totalSizeBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.progress.FilesLoaded = filesLoaded
		s.progress.TotalSizeBytes = totalSizeBytes
	}
}

func (m *Manager) fail(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.status = domain.SessionFailed
		s.progress.Stage = domain.StageFailed
		s.errMsg = reason
		s.lastReadAt = time.Now()
	}
}

// Status returns the current status of a session and refreshes its
// last-read timestamp. Returns domain.ErrNotFound if the session is
// unknown (never existed, or already garbage-collected).
func (m *Manager) Status(id string) (StatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return StatusResponse{}, domain.NewError(domain.KindNotFound, "session not found", domain.ErrNotFound)
	}
	s.lastReadAt = time.Now()

	return StatusResponse{
		SessionID: s.id,
		Status:    s.status,
		Library:   s.library,
		Progress:  s.progress,
		RuntimeMS: time.Since(s.startedAt).Milliseconds(),
		MemoryID:  s.memoryID,
		Error:     s.errMsg,
	}, nil
}

// Cancel requests cancellation of an in-flight session. Observed at the
// next poll boundary inside the background task.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return domain.NewError(domain.KindNotFound, "session not found", domain.ErrNotFound)
	}
	s.cancel()
	return nil
}
