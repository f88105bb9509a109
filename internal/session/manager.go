package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/runner"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// entry guards one live session. Events on the same session never overlap.
type entry struct {
	mu sync.Mutex
	s  *Session
}

// Manager keeps sessions keyed by ID, loads them from the store on demand
// and writes every change back.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	store  types.Store
	runner *runner.Runner
	seed   uint64
	log    *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSeed makes every new session draw from a generator seeded with seed.
// Zero means time-seeded.
func WithSeed(seed uint64) ManagerOption {
	return func(m *Manager) { m.seed = seed }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager returns a Manager persisting to store and running algorithms
// with r.
func NewManager(store types.Store, r *runner.Runner, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		store:    store,
		runner:   r,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session with random tables.
func (m *Manager) Create(dims types.Dimensions) (*types.Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	s, err := New(id.String(), dims, random.New(m.seed))
	if err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	if err := m.store.SaveSession(snap); err != nil {
		return nil, fmt.Errorf("saving session %s: %w", s.ID(), err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = &entry{s: s}
	m.mu.Unlock()

	m.log.Info("session created",
		zap.String("session", s.ID()),
		zap.Int("agents", dims.Agents),
		zap.Int("items", dims.Items))
	return snap, nil
}

// Get returns the current snapshot of a session.
func (m *Manager) Get(id string) (*types.Snapshot, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Snapshot(), nil
}

// Apply runs fn on the session under its lock and persists the result. The
// snapshot is returned even when fn fails, so callers can show the
// unchanged state next to the error.
func (m *Manager) Apply(id string, fn func(*Session) error) (*types.Snapshot, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.s.Snapshot()
	if err := fn(e.s); err != nil {
		m.log.Info("session event rejected", zap.String("session", id), zap.Error(err))
		return e.s.Snapshot(), err
	}
	snap := e.s.Snapshot()
	if err := m.store.SaveSession(snap); err != nil {
		// Memory must not run ahead of the store.
		if s, rerr := Restore(prev, random.New(m.seed)); rerr == nil {
			e.s = s
		} else {
			m.log.Error("rolling back session", zap.String("session", id), zap.Error(rerr))
		}
		return prev, fmt.Errorf("saving session %s: %w", id, err)
	}
	return snap, nil
}

// Delete discards a session and its runs.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := m.store.DeleteSession(id); err != nil {
		return err
	}
	m.log.Info("session deleted", zap.String("session", id))
	return nil
}

// List returns the IDs of all stored sessions.
func (m *Manager) List() ([]string, error) {
	return m.store.ListSessions()
}

// Run builds the instance of a session and runs algs on it. The record is
// persisted before it is returned.
func (m *Manager) Run(id string, algs []types.Algorithm) (*types.RunRecord, error) {
	if len(algs) == 0 {
		return nil, fmt.Errorf("%w: no algorithms selected", types.ErrValidation)
	}
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, err := e.s.Instance()
	if err != nil {
		return nil, err
	}
	outcomes, elapsed := m.runner.Run(inst, algs)

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	rec := &types.RunRecord{
		RunID:     runID.String(),
		SessionID: id,
		Outcomes:  outcomes,
		Elapsed:   elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.SaveRun(rec); err != nil {
		return nil, fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	m.log.Info("run stored",
		zap.String("session", id),
		zap.String("run", rec.RunID),
		zap.Duration("elapsed", elapsed))
	return rec, nil
}

// Runs returns the stored runs of a session, oldest first.
func (m *Manager) Runs(id string) ([]*types.RunRecord, error) {
	return m.store.ListRuns(id)
}

// lookup returns the live entry for id, restoring it from the store when it
// is not in memory.
func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	snap, err := m.store.LoadSession(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	s, err := Restore(snap, random.New(m.seed))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it first.
	if e, ok := m.sessions[id]; ok {
		return e, nil
	}
	e = &entry{s: s}
	m.sessions[id] = e
	m.log.Debug("session restored", zap.String("session", id))
	return e, nil
}
