package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coursealloc/internal/fairdiv"
	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/tabular"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

func newTestSession(t *testing.T, n, m int) *Session {
	t.Helper()
	s, err := New("s1", types.Dimensions{Agents: n, Items: m}, random.New(7))
	require.NoError(t, err)
	return s
}

func TestNewCreatesAllTables(t *testing.T) {
	s := newTestSession(t, 4, 5)
	snap := s.Snapshot()

	require.Len(t, snap.Tables, 3)
	assert.Equal(t, types.Shape{Rows: 4, Cols: 1}, snap.Tables[types.TableAgentCapacities].Shape())
	assert.Equal(t, types.Shape{Rows: 5, Cols: 1}, snap.Tables[types.TableItemCapacities].Shape())
	assert.Equal(t, types.Shape{Rows: 4, Cols: 5}, snap.Tables[types.TablePreferences].Shape())
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	_, err := New("s1", types.Dimensions{Agents: 1, Items: 3}, random.New(7))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestEndToEndShuffleAndRoundRobin(t *testing.T) {
	s := newTestSession(t, 3, 3)
	require.NoError(t, s.Shuffle())

	agents, err := s.Table(types.TableAgentCapacities)
	require.NoError(t, err)
	require.Len(t, agents.Values, 3)
	for _, row := range agents.Values {
		assert.GreaterOrEqual(t, row[0], 1)
		assert.Less(t, row[0], 10)
	}

	items, err := s.Table(types.TableItemCapacities)
	require.NoError(t, err)
	require.Len(t, items.Values, 3)
	for _, row := range items.Values {
		assert.GreaterOrEqual(t, row[0], 10)
		assert.Less(t, row[0], 100)
	}

	prefs, err := s.Table(types.TablePreferences)
	require.NoError(t, err)
	assert.Equal(t, types.Shape{Rows: 3, Cols: 3}, prefs.Shape())
	for _, row := range prefs.Values {
		sum := 0
		for _, v := range row {
			sum += v
		}
		assert.Equal(t, 1000, sum)
	}

	inst, err := s.Instance()
	require.NoError(t, err)
	alloc, _, err := fairdiv.New().Divide(inst, types.AlgRoundRobin)
	require.NoError(t, err)
	assert.NoError(t, fairdiv.Check(inst, alloc))
}

func TestSetDimensionsResizesTables(t *testing.T) {
	s := newTestSession(t, 3, 3)
	before, err := s.Table(types.TablePreferences)
	require.NoError(t, err)

	require.NoError(t, s.SetDimensions(types.Dimensions{Agents: 2, Items: 3}))
	after, err := s.Table(types.TablePreferences)
	require.NoError(t, err)
	assert.Equal(t, before.Values[:2], after.Values)

	agents, err := s.Table(types.TableAgentCapacities)
	require.NoError(t, err)
	assert.Equal(t, []string{"Agent 1", "Agent 2"}, agents.Rows)
}

func TestSetDimensionsRejectsOutOfBounds(t *testing.T) {
	s := newTestSession(t, 3, 3)
	before := s.Snapshot()

	err := s.SetDimensions(types.Dimensions{Agents: 3, Items: 101})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, before.Dimensions, s.Dimensions())
	assert.Equal(t, before.Tables, s.Snapshot().Tables)
}

func TestUploadAndEdit(t *testing.T) {
	s := newTestSession(t, 2, 3)

	tbl, err := s.Upload(types.TableAgentCapacities, []byte(",Capacity\nAgent 1,4\nAgent 2,6\n"))
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{4}, {6}}, tbl.Values)

	tbl, err = s.Edit(types.TableAgentCapacities, []tabular.CellEdit{{Row: 1, Col: 0, Value: "9"}})
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{4}, {9}}, tbl.Values)

	tbl, err = s.Edit(types.TableAgentCapacities, []tabular.CellEdit{{Row: 0, Col: 0, Value: "lots"}})
	assert.ErrorIs(t, err, types.ErrCoercion)
	assert.Equal(t, types.Grid{{4}, {9}}, tbl.Values)

	_, err = s.Upload(types.TableAgentCapacities, []byte("a,b\n1\n"))
	assert.ErrorIs(t, err, types.ErrImport)
	got, err := s.Table(types.TableAgentCapacities)
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{4}, {9}}, got.Values)
}

func TestUnknownTable(t *testing.T) {
	s := newTestSession(t, 2, 3)
	_, err := s.Upload("conflicts", []byte("1\n"))
	assert.ErrorIs(t, err, types.ErrUnknownTable)
	_, err = s.Table("conflicts")
	assert.ErrorIs(t, err, types.ErrUnknownTable)
}

func TestRestoreRoundTrip(t *testing.T) {
	s := newTestSession(t, 3, 4)
	snap := s.Snapshot()

	restored, err := Restore(snap, random.New(1))
	require.NoError(t, err)
	assert.Equal(t, snap.Dimensions, restored.Dimensions())
	assert.Equal(t, snap.Tables, restored.Snapshot().Tables)
}

func TestRestoreFillsMissingTable(t *testing.T) {
	snap := newTestSession(t, 3, 4).Snapshot()
	delete(snap.Tables, types.TablePreferences)

	restored, err := Restore(snap, random.New(1))
	require.NoError(t, err)
	prefs, err := restored.Table(types.TablePreferences)
	require.NoError(t, err)
	assert.Equal(t, types.Shape{Rows: 3, Cols: 4}, prefs.Shape())
}

func TestRestoreRejectsRaggedTable(t *testing.T) {
	snap := newTestSession(t, 3, 3).Snapshot()
	snap.Tables[types.TablePreferences].Values[2] = []int{1}

	_, err := Restore(snap, random.New(1))
	assert.ErrorIs(t, err, types.ErrValidation)

	snap = newTestSession(t, 3, 3).Snapshot()
	prefs := snap.Tables[types.TablePreferences]
	prefs.Rows = prefs.Rows[:2]
	_, err = Restore(snap, random.New(1))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRestoreRejectsOutOfDomain(t *testing.T) {
	snap := newTestSession(t, 3, 4).Snapshot()
	snap.Tables[types.TableAgentCapacities].Values[0][0] = 99

	_, err := Restore(snap, random.New(1))
	assert.ErrorIs(t, err, types.ErrValidation)
}
