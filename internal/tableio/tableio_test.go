package tableio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantGrid  types.Grid
		wantShape types.Shape
	}{
		{
			name:      "labelled download layout",
			payload:   ",Capacity\nAgent 1,3\nAgent 2,7\n",
			wantGrid:  types.Grid{{3}, {7}},
			wantShape: types.Shape{Rows: 2, Cols: 1},
		},
		{
			name:      "header without labels",
			payload:   "Capacity\n30\n40\n50\n",
			wantGrid:  types.Grid{{30}, {40}, {50}},
			wantShape: types.Shape{Rows: 3, Cols: 1},
		},
		{
			name:      "bare numbers",
			payload:   "1,2,3\n4,5,6\n",
			wantGrid:  types.Grid{{1, 2, 3}, {4, 5, 6}},
			wantShape: types.Shape{Rows: 2, Cols: 3},
		},
		{
			name:      "labels without header",
			payload:   "Agent 1,10,20\nAgent 2,30,40\n",
			wantGrid:  types.Grid{{10, 20}, {30, 40}},
			wantShape: types.Shape{Rows: 2, Cols: 2},
		},
		{
			name:      "float cells truncate",
			payload:   ",Item 1,Item 2\nAgent 1,7.0,3.9\n",
			wantGrid:  types.Grid{{7, 3}},
			wantShape: types.Shape{Rows: 1, Cols: 2},
		},
		{
			name:      "named index header",
			payload:   "student,Item 1,Item 2\nA,1,2\nB,3,4\n",
			wantGrid:  types.Grid{{1, 2}, {3, 4}},
			wantShape: types.Shape{Rows: 2, Cols: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, shape, err := Parse(strings.NewReader(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantGrid, grid)
			assert.Equal(t, tt.wantShape, shape)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "whitespace only", payload: "   \n"},
		{name: "header only", payload: ",Capacity\n"},
		{name: "non-numeric cell", payload: ",Capacity\nAgent 1,abc\n"},
		{name: "ragged rows", payload: "1,2\n3\n"},
		{name: "header width mismatch", payload: ",A,B\nAgent 1,1\n"},
		{name: "labels only", payload: "x\ny\nz\n"},
		{name: "broken quoting", payload: "\"1,2\n3,4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseBytes([]byte(tt.payload))
			assert.ErrorIs(t, err, types.ErrImport)
		})
	}
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	tbl := &types.Table{
		Name:    types.TablePreferences,
		Rows:    types.Labels(types.AgentLabelPrefix, 2),
		Columns: types.Labels(types.ItemLabelPrefix, 3),
		Values:  types.Grid{{100, 400, 500}, {0, 999, 1}},
	}
	data, err := Encode(tbl)
	require.NoError(t, err)
	assert.Equal(t, ",Item 1,Item 2,Item 3\nAgent 1,100,400,500\nAgent 2,0,999,1\n", string(data))

	grid, shape, err := ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, tbl.Values, grid)
	assert.Equal(t, tbl.Shape(), shape)
}

func TestWriteNilTable(t *testing.T) {
	var sb strings.Builder
	assert.ErrorIs(t, Write(&sb, nil), ErrNilTable)
}
