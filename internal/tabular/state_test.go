package tabular

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/tableio"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

func newState(t *testing.T, v Variant) *State {
	t.Helper()
	return New(v, random.New(11))
}

func assertInDomain(t *testing.T, v Variant, tbl *types.Table) {
	t.Helper()
	for i, row := range tbl.Values {
		for j, x := range row {
			assert.True(t, v.InDomain(x), "%s cell (%d, %d) = %d outside [%d, %d]", v.Name, i, j, x, v.Min, v.Max)
		}
	}
}

func assertLabels(t *testing.T, v Variant, tbl *types.Table) {
	t.Helper()
	shape := tbl.Values.Shape()
	assert.Equal(t, types.Labels(v.RowPrefix, shape.Rows), tbl.Rows)
	assert.Equal(t, v.columns(shape.Cols), tbl.Columns)
}

func rowSums(g types.Grid) []int {
	out := make([]int, len(g))
	for i, row := range g {
		for _, x := range row {
			out[i] += x
		}
	}
	return out
}

// csvOf renders a grid as a bare numeric CSV payload.
func csvOf(g types.Grid) []byte {
	var sb strings.Builder
	for _, row := range g {
		cells := make([]string, len(row))
		for j, x := range row {
			cells[j] = fmt.Sprint(x)
		}
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

func TestInitialRandomTableIsInDomain(t *testing.T) {
	shapes := []struct {
		variant Variant
		shape   types.Shape
	}{
		{AgentCapacities(), types.Shape{Rows: 2, Cols: 1}},
		{AgentCapacities(), types.Shape{Rows: 500, Cols: 1}},
		{ItemCapacities(), types.Shape{Rows: 3, Cols: 1}},
		{ItemCapacities(), types.Shape{Rows: 100, Cols: 1}},
		{Preferences(), types.Shape{Rows: 2, Cols: 3}},
		{Preferences(), types.Shape{Rows: 40, Cols: 100}},
	}
	for _, tt := range shapes {
		t.Run(fmt.Sprintf("%s %s", tt.variant.Name, tt.shape), func(t *testing.T) {
			s := newState(t, tt.variant)
			tbl, err := s.Reconcile(tt.shape, Resize{})
			require.NoError(t, err)
			assert.Equal(t, tt.shape, tbl.Shape())
			assert.Equal(t, tt.shape, tbl.Values.Shape())
			assertInDomain(t, tt.variant, tbl)
			assertLabels(t, tt.variant, tbl)
		})
	}
}

func TestReconcileIsIdempotentWithoutChanges(t *testing.T) {
	s := newState(t, Preferences())
	shape := types.Shape{Rows: 4, Cols: 5}
	first, err := s.Reconcile(shape, Resize{})
	require.NoError(t, err)

	second, err := s.Reconcile(shape, Resize{})
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("table changed on identical reconcile (-first +second):\n%s", diff)
	}
}

func TestShrinkThenGrowPreservesSurvivingBlock(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 5, Cols: 5}, Resize{})
	require.NoError(t, err)

	shrunk, err := s.Reconcile(types.Shape{Rows: 3, Cols: 5}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 3, Cols: 5}, shrunk.Shape())
	assert.Equal(t, orig.Values[:3], shrunk.Values)

	grown, err := s.Reconcile(types.Shape{Rows: 5, Cols: 5}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 5, Cols: 5}, grown.Shape())
	assert.Equal(t, orig.Values[:3], grown.Values[:3])
	assert.Equal(t, []int{1000, 1000}, rowSums(grown.Values[3:]))
	assertLabels(t, Preferences(), grown)
}

func TestColumnGrowthAppendsColumns(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 3}, Resize{})
	require.NoError(t, err)

	grown, err := s.Reconcile(types.Shape{Rows: 3, Cols: 6}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 3, Cols: 6}, grown.Shape())
	for i := range orig.Values {
		assert.Equal(t, orig.Values[i], grown.Values[i][:3])
		for _, x := range grown.Values[i][3:] {
			assert.GreaterOrEqual(t, x, 1)
			assert.Less(t, x, 1000)
		}
	}
	assert.Equal(t, types.Labels(types.ItemLabelPrefix, 6), grown.Columns)
}

func TestRowGrowthWithColumnShrink(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 5}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 4, Cols: 4}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 4, Cols: 4}, next.Shape())
	for i := 0; i < 3; i++ {
		assert.Equal(t, orig.Values[i][:4], next.Values[i])
	}
	assert.Equal(t, 1000, rowSums(next.Values[3:])[0])
}

func TestColumnGrowthWithRowShrink(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 4, Cols: 3}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 2, Cols: 4}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 2, Cols: 4}, next.Shape())
	for i := 0; i < 2; i++ {
		assert.Equal(t, orig.Values[i], next.Values[i][:3])
	}
}

func TestGrowthOnBothAxesRegenerates(t *testing.T) {
	s := newState(t, Preferences())
	_, err := s.Reconcile(types.Shape{Rows: 2, Cols: 3}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 3, Cols: 4}, Resize{})
	require.NoError(t, err)
	require.Equal(t, types.Shape{Rows: 3, Cols: 4}, next.Shape())
	assert.Equal(t, []int{1000, 1000, 1000}, rowSums(next.Values))
	assertLabels(t, Preferences(), next)
}

func TestCapacityRowGrowth(t *testing.T) {
	v := ItemCapacities()
	s := newState(t, v)
	orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Resize{})
	require.NoError(t, err)

	grown, err := s.Reconcile(types.Shape{Rows: 6, Cols: 1}, Resize{})
	require.NoError(t, err)
	assert.Equal(t, orig.Values, grown.Values[:3])
	assertInDomain(t, v, grown)
	assert.Equal(t, "Item 6", grown.Rows[5])
	assert.Equal(t, []string{types.CapacityColumn}, grown.Columns)
}

func TestShuffleRegeneratesAtRequestedShape(t *testing.T) {
	s := newState(t, Preferences())
	_, err := s.Reconcile(types.Shape{Rows: 5, Cols: 5}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 3, Cols: 3}, Shuffle{})
	require.NoError(t, err)
	assert.Equal(t, types.Shape{Rows: 3, Cols: 3}, next.Shape())
	assert.Equal(t, []int{1000, 1000, 1000}, rowSums(next.Values))
}

func TestUploadExactShapeReplacesAllValues(t *testing.T) {
	s := newState(t, Preferences())
	_, err := s.Reconcile(types.Shape{Rows: 4, Cols: 4}, Resize{})
	require.NoError(t, err)

	upload := types.Grid{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}
	next, err := s.Reconcile(types.Shape{Rows: 4, Cols: 4}, Upload{Payload: csvOf(upload)})
	require.NoError(t, err)
	assert.Equal(t, upload, next.Values)
	assertLabels(t, Preferences(), next)
}

func TestUploadSmallerShapeOverwritesTopLeft(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 4, Cols: 4}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 4, Cols: 4}, Upload{Payload: []byte("1,2\n3,4\n")})
	require.NoError(t, err)

	want := orig.Values.Clone()
	want[0][0], want[0][1] = 1, 2
	want[1][0], want[1][1] = 3, 4
	if diff := cmp.Diff(want, next.Values); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestUploadLargerShapeOverwritesOverlap(t *testing.T) {
	s := newState(t, AgentCapacities())
	_, err := s.Reconcile(types.Shape{Rows: 2, Cols: 1}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 2, Cols: 1}, Upload{Payload: []byte("Capacity\n4\n5\n6\n")})
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{4}, {5}}, next.Values)
}

func TestMalformedUploadKeepsPriorTable(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "non-numeric", payload: "1,2\n3,x\n"},
		{name: "empty", payload: ""},
		{name: "out of domain", payload: "1,2\n3,5000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t, Preferences())
			orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 3}, Resize{})
			require.NoError(t, err)

			got, err := s.Reconcile(types.Shape{Rows: 3, Cols: 3}, Upload{Payload: []byte(tt.payload)})
			assert.ErrorIs(t, err, types.ErrImport)
			assert.Equal(t, orig, got)
			assert.Equal(t, orig, s.Table())
		})
	}
}

func TestFirstUploadWithMatchingShapeIsAdopted(t *testing.T) {
	s := newState(t, AgentCapacities())
	tbl, err := s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Upload{Payload: []byte(",Capacity\nAgent 1,1\nAgent 2,2\nAgent 3,3\n")})
	require.NoError(t, err)
	assert.Equal(t, types.Grid{{1}, {2}, {3}}, tbl.Values)
	assert.Equal(t, tbl, s.Table())
}

func TestFirstUploadWithWrongShapeFallsBackWithoutState(t *testing.T) {
	s := newState(t, AgentCapacities())
	tbl, err := s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Upload{Payload: []byte("1\n2\n")})
	assert.ErrorIs(t, err, types.ErrImport)
	require.NotNil(t, tbl)
	assert.Equal(t, types.Shape{Rows: 3, Cols: 1}, tbl.Shape())
	assertInDomain(t, AgentCapacities(), tbl)
	assert.Nil(t, s.Table())
}

func TestUploadThenResizeMatchesRequestedShape(t *testing.T) {
	s := newState(t, Preferences())
	_, err := s.Reconcile(types.Shape{Rows: 2, Cols: 3}, Resize{})
	require.NoError(t, err)

	next, err := s.Reconcile(types.Shape{Rows: 3, Cols: 3}, Upload{Payload: []byte("7,8,9\n1,2,3\n")})
	require.NoError(t, err)
	assert.Equal(t, types.Shape{Rows: 3, Cols: 3}, next.Shape())
	assert.Equal(t, types.Grid{{7, 8, 9}, {1, 2, 3}}, next.Values[:2])
}

func TestDownloadUploadRoundTrip(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 4, Cols: 5}, Resize{})
	require.NoError(t, err)

	data, err := tableio.Encode(orig)
	require.NoError(t, err)
	next, err := s.Reconcile(types.Shape{Rows: 4, Cols: 5}, Upload{Payload: data})
	require.NoError(t, err)
	assert.Equal(t, orig, next)
}

func TestEditCoercesAndRejects(t *testing.T) {
	s := newState(t, AgentCapacities())
	orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Resize{})
	require.NoError(t, err)
	shape := types.Shape{Rows: 3, Cols: 1}

	next, err := s.Reconcile(shape, Edit{Cells: []CellEdit{{Row: 1, Col: 0, Value: "7.0"}}})
	require.NoError(t, err)
	assert.Equal(t, 7, next.Values[1][0])

	got, err := s.Reconcile(shape, Edit{Cells: []CellEdit{{Row: 1, Col: 0, Value: "abc"}}})
	assert.ErrorIs(t, err, types.ErrCoercion)
	assert.Equal(t, 7, got.Values[1][0])
	assert.Equal(t, 7, s.Table().Values[1][0])
	assert.Equal(t, orig.Values[0], s.Table().Values[0])
}

func TestEditIsAtomic(t *testing.T) {
	s := newState(t, AgentCapacities())
	orig, err := s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Resize{})
	require.NoError(t, err)

	_, err = s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Edit{Cells: []CellEdit{
		{Row: 0, Col: 0, Value: 5},
		{Row: 2, Col: 0, Value: 11},
	}})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, orig, s.Table())

	_, err = s.Reconcile(types.Shape{Rows: 3, Cols: 1}, Edit{Cells: []CellEdit{{Row: 3, Col: 0, Value: 5}}})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, orig, s.Table())
}

func TestEditWithoutStateIsRejected(t *testing.T) {
	s := newState(t, Preferences())
	tbl, err := s.Reconcile(types.Shape{Rows: 2, Cols: 3}, Edit{Cells: []CellEdit{{Row: 0, Col: 0, Value: 1}}})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Nil(t, tbl)
	assert.Nil(t, s.Table())
}

func TestOutOfBoundsShapeIsRejected(t *testing.T) {
	s := newState(t, Preferences())
	orig, err := s.Reconcile(types.Shape{Rows: 2, Cols: 3}, Resize{})
	require.NoError(t, err)

	for _, shape := range []types.Shape{{Rows: 1, Cols: 3}, {Rows: 501, Cols: 3}, {Rows: 2, Cols: 2}, {Rows: 2, Cols: 101}} {
		got, err := s.Reconcile(shape, Resize{})
		assert.ErrorIs(t, err, types.ErrValidation, "shape %s", shape)
		assert.Equal(t, orig, got)
	}

	c := newState(t, AgentCapacities())
	_, err = c.Reconcile(types.Shape{Rows: 3, Cols: 2}, Resize{})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRestore(t *testing.T) {
	tbl := &types.Table{Values: types.Grid{{3}, {4}}}
	s, err := Restore(AgentCapacities(), random.New(1), tbl)
	require.NoError(t, err)
	got := s.Table()
	assert.Equal(t, []string{"Agent 1", "Agent 2"}, got.Rows)
	assert.Equal(t, types.Grid{{3}, {4}}, got.Values)

	_, err = Restore(AgentCapacities(), random.New(1), &types.Table{Values: types.Grid{{30}, {4}}})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRestoreRejectsMalformedTables(t *testing.T) {
	valid := types.Grid{{500, 300, 200}, {400, 100, 500}}
	_, err := Restore(Preferences(), random.New(1), &types.Table{
		Rows:    types.Labels(types.AgentLabelPrefix, 2),
		Columns: types.Labels(types.ItemLabelPrefix, 3),
		Values:  valid,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		tbl  *types.Table
	}{
		{"ragged row", &types.Table{Values: types.Grid{{500, 300, 200}, {1}}}},
		{"short row label list", &types.Table{
			Rows:   []string{"Agent 1"},
			Values: valid,
		}},
		{"extra column label", &types.Table{
			Columns: types.Labels(types.ItemLabelPrefix, 4),
			Values:  valid,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(Preferences(), random.New(1), tt.tbl)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestForTable(t *testing.T) {
	for _, name := range types.StandardTableNames {
		v, err := ForTable(name)
		require.NoError(t, err)
		assert.Equal(t, name, v.Name)
	}
	_, err := ForTable("nope")
	assert.ErrorIs(t, err, types.ErrUnknownTable)
}
