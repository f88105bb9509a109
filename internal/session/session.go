// Package session owns the problem dimensions and the three tables of one
// user session, and keeps many sessions in a Manager.
package session

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/coursealloc/internal/instance"
	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/tabular"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Session is one configurator: the dimensions n and m and one tabular.State
// per table. A Session is not safe for concurrent use; the Manager
// serializes events per session.
type Session struct {
	id        string
	dims      types.Dimensions
	tables    map[string]*tabular.State
	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time
}

// New creates a session with random tables of the given dimensions.
func New(id string, dims types.Dimensions, gen *random.Generator) (*Session, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	s := newSession(id, dims)
	for _, name := range types.StandardTableNames {
		v, err := tabular.ForTable(name)
		if err != nil {
			return nil, err
		}
		s.tables[name] = tabular.New(v, gen)
	}
	if err := s.reconcileAll(tabular.Resize{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds a session from a snapshot. Tables missing from the
// snapshot are generated.
func Restore(snap *types.Snapshot, gen *random.Generator) (*Session, error) {
	if err := snap.Dimensions.Validate(); err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", snap.SessionID, err)
	}
	s := newSession(snap.SessionID, snap.Dimensions)
	s.createdAt = snap.CreatedAt
	s.updatedAt = snap.UpdatedAt
	for _, name := range types.StandardTableNames {
		v, err := tabular.ForTable(name)
		if err != nil {
			return nil, err
		}
		st, err := tabular.Restore(v, gen, snap.Tables[name])
		if err != nil {
			return nil, fmt.Errorf("restoring session %s table %s: %w", snap.SessionID, name, err)
		}
		s.tables[name] = st
	}
	// Brings stored tables to the stored dimensions and fills any gaps.
	if err := s.reconcileAll(tabular.Resize{}); err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", snap.SessionID, err)
	}
	return s, nil
}

func newSession(id string, dims types.Dimensions) *Session {
	s := &Session{
		id:     id,
		dims:   dims,
		tables: make(map[string]*tabular.State, len(types.StandardTableNames)),
		now:    time.Now,
	}
	s.createdAt = s.now().UTC()
	s.updatedAt = s.createdAt
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Dimensions returns the current n and m.
func (s *Session) Dimensions() types.Dimensions { return s.dims }

// SetDimensions changes n and m and resizes every table. Invalid
// dimensions are rejected before any table changes.
func (s *Session) SetDimensions(dims types.Dimensions) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	s.dims = dims
	return s.reconcileAll(tabular.Resize{})
}

// Shuffle regenerates all three tables.
func (s *Session) Shuffle() error {
	return s.reconcileAll(tabular.Shuffle{})
}

// Upload applies a CSV payload to the named table. On error the table keeps
// its previous content, which is returned with the error.
func (s *Session) Upload(table string, payload []byte) (*types.Table, error) {
	return s.reconcile(table, tabular.Upload{Payload: payload})
}

// Edit sets cells of the named table. All cells are applied or none.
func (s *Session) Edit(table string, cells []tabular.CellEdit) (*types.Table, error) {
	return s.reconcile(table, tabular.Edit{Cells: cells})
}

// Table returns a copy of the named table.
func (s *Session) Table(name string) (*types.Table, error) {
	st, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTable, name)
	}
	return st.Table(), nil
}

// Instance builds the problem instance from the current tables.
func (s *Session) Instance() (types.Instance, error) {
	return instance.Build(
		s.tables[types.TableAgentCapacities].Table(),
		s.tables[types.TableItemCapacities].Table(),
		s.tables[types.TablePreferences].Table(),
	)
}

// Snapshot returns a copy of the session state for persistence and display.
func (s *Session) Snapshot() *types.Snapshot {
	snap := &types.Snapshot{
		SessionID:  s.id,
		Dimensions: s.dims,
		Tables:     make(map[string]*types.Table, len(s.tables)),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	for name, st := range s.tables {
		snap.Tables[name] = st.Table()
	}
	return snap
}

func (s *Session) reconcile(name string, req tabular.Request) (*types.Table, error) {
	st, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTable, name)
	}
	shape, err := s.dims.ShapeOf(name)
	if err != nil {
		return nil, err
	}
	t, err := st.Reconcile(shape, req)
	if err != nil {
		return t, err
	}
	s.touch()
	return t, nil
}

func (s *Session) reconcileAll(req tabular.Request) error {
	for _, name := range types.StandardTableNames {
		if _, err := s.reconcile(name, req); err != nil {
			return fmt.Errorf("reconciling %s: %w", name, err)
		}
	}
	return nil
}

func (s *Session) touch() {
	s.updatedAt = s.now().UTC()
}
