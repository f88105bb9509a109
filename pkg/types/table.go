package types

import "fmt"

// Label prefixes and the single capacity column name.
const (
	AgentLabelPrefix = "Agent"
	ItemLabelPrefix  = "Item"
	CapacityColumn   = "Capacity"
)

// Shape is the row and column count of a table.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// Grid is a row-major matrix of integer cells.
type Grid [][]int

// Shape returns the grid dimensions. A grid with no rows has zero columns.
func (g Grid) Shape() Shape {
	if len(g) == 0 {
		return Shape{}
	}
	return Shape{Rows: len(g), Cols: len(g[0])}
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Table is a labelled integer grid. Row and column labels are derived from
// the shape and are never edited directly.
type Table struct {
	Name    string   `json:"name"`
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Values  Grid     `json:"values"`
}

// Shape returns the table dimensions.
func (t *Table) Shape() Shape {
	return Shape{Rows: len(t.Rows), Cols: len(t.Columns)}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return &Table{
		Name:    t.Name,
		Rows:    append([]string(nil), t.Rows...),
		Columns: append([]string(nil), t.Columns...),
		Values:  t.Values.Clone(),
	}
}

// Labels returns "<prefix> 1" through "<prefix> count".
func Labels(prefix string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = Label(prefix, i)
	}
	return out
}

// Label returns the label for the zero-based index i.
func Label(prefix string, i int) string {
	return fmt.Sprintf("%s %d", prefix, i+1)
}
