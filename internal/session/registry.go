package session

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
)

// ErrEmptyCaseID is returned when a session is requested without a key.
var ErrEmptyCaseID = errors.New("case id is required")

// Factory builds the engine for a new session.
type Factory func(caseID string) (agent.Engine, error)

type entry struct {
	once   sync.Once
	engine agent.Engine
	err    error
}

// store is the key lookup behind the registry. Callers hold Registry.mu.
type store interface {
	get(key string) (*entry, bool)
	add(key string, e *entry)
	remove(key string) bool
	len() int
}

type mapStore map[string]*entry

func (m mapStore) get(key string) (*entry, bool) { e, ok := m[key]; return e, ok }
func (m mapStore) add(key string, e *entry)      { m[key] = e }
func (m mapStore) len() int                      { return len(m) }

func (m mapStore) remove(key string) bool {
	_, ok := m[key]
	delete(m, key)
	return ok
}

type lruStore struct {
	cache *lru.Cache[string, *entry]
}

func (s lruStore) get(key string) (*entry, bool) { return s.cache.Get(key) }
func (s lruStore) add(key string, e *entry)      { s.cache.Add(key, e) }
func (s lruStore) remove(key string) bool        { return s.cache.Remove(key) }
func (s lruStore) len() int                      { return s.cache.Len() }

// Registry maps case ids to long-lived engines. Each key's engine is built
// exactly once, even when several requests resolve it at the same time.
// With maxSessions of zero sessions live until Reset; otherwise the least
// recently used session is evicted once the limit is reached.
type Registry struct {
	factory Factory
	logger  *zap.Logger

	mu    sync.Mutex
	store store
}

func NewRegistry(factory Factory, maxSessions int, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		factory: factory,
		logger:  logger,
	}
	if maxSessions <= 0 {
		r.store = mapStore{}
		return r, nil
	}

	cache, err := lru.NewWithEvict[string, *entry](maxSessions, func(key string, _ *entry) {
		logger.Info("session dropped from cache", zap.String("case_id", key))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	r.store = lruStore{cache: cache}
	return r, nil
}

// Resolve returns the session for caseID, creating it on first use.
func (r *Registry) Resolve(caseID string) (agent.Engine, error) {
	if caseID == "" {
		return nil, ErrEmptyCaseID
	}

	r.mu.Lock()
	e, ok := r.store.get(caseID)
	if !ok {
		e = &entry{}
		r.store.add(caseID, e)
	}
	r.mu.Unlock()

	e.once.Do(func() {
		r.logger.Info("creating session", zap.String("case_id", caseID))
		e.engine, e.err = r.factory(caseID)
	})

	if e.err != nil {
		r.mu.Lock()
		if cur, ok := r.store.get(caseID); ok && cur == e {
			r.store.remove(caseID)
		}
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to create session %s: %w", caseID, e.err)
	}
	return e.engine, nil
}

// Reset drops the session for caseID. It reports whether one existed.
func (r *Registry) Reset(caseID string) bool {
	r.mu.Lock()
	removed := r.store.remove(caseID)
	r.mu.Unlock()

	r.logger.Info("session reset", zap.String("case_id", caseID), zap.Bool("existed", removed))
	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.len()
}
