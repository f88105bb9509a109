package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

var _ types.Store = (*MemoryStore)(nil)

// MemoryStore is an in-process types.Store. Contents are lost on exit.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.Snapshot
	runs     map[string][]*types.RunRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.Snapshot),
		runs:     make(map[string][]*types.RunRecord),
	}
}

// SaveSession stores a copy of snap.
func (m *MemoryStore) SaveSession(snap *types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[snap.SessionID] = snap.Clone()
	return nil
}

// LoadSession returns a copy of the stored snapshot.
func (m *MemoryStore) LoadSession(id string) (*types.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return snap.Clone(), nil
}

// DeleteSession removes the snapshot and its runs.
func (m *MemoryStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	delete(m.sessions, id)
	delete(m.runs, id)
	return nil
}

// ListSessions returns the stored session IDs in sorted order.
func (m *MemoryStore) ListSessions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveRun appends r to its session's runs.
func (m *MemoryStore) SaveRun(r *types.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[r.SessionID]; !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, r.SessionID)
	}
	cp := *r
	m.runs[r.SessionID] = append(m.runs[r.SessionID], &cp)
	return nil
}

// ListRuns returns the runs of a session, oldest first.
func (m *MemoryStore) ListRuns(sessionID string) ([]*types.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, sessionID)
	}
	out := make([]*types.RunRecord, len(m.runs[sessionID]))
	copy(out, m.runs[sessionID])
	return out, nil
}
