package tabular

import (
	"fmt"

	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Variant describes one kind of table: its labels, shape bounds, value
// domain and how random content is drawn for it.
type Variant struct {
	Name      string
	RowPrefix string

	// FixedCols is the column count of single-column tables; zero means the
	// column count follows the requested shape within ColBounds.
	FixedCols int
	RowBounds [2]int
	ColBounds [2]int

	// Min and Max bound every stored cell, inclusive.
	Min, Max int

	columns    func(cols int) []string
	generate   func(g *random.Generator, shape types.Shape) types.Grid
	appendRows func(g *random.Generator, rows, cols int) types.Grid
	appendCols func(g *random.Generator, rows, cols int) types.Grid
}

// Capacity draw ranges, half-open like the generator.
const (
	agentCapacityMin = 1
	agentCapacityMax = 10
	itemCapacityMin  = 10
	itemCapacityMax  = 100
	preferenceMax    = 1000
)

// AgentCapacities is the n × 1 table of agent capacities.
func AgentCapacities() Variant {
	return capacityVariant(types.TableAgentCapacities, types.AgentLabelPrefix,
		[2]int{types.MinAgents, types.MaxAgents}, agentCapacityMin, agentCapacityMax)
}

// ItemCapacities is the m × 1 table of item capacities.
func ItemCapacities() Variant {
	return capacityVariant(types.TableItemCapacities, types.ItemLabelPrefix,
		[2]int{types.MinItems, types.MaxItems}, itemCapacityMin, itemCapacityMax)
}

func capacityVariant(name, prefix string, rows [2]int, lo, hi int) Variant {
	draw := func(g *random.Generator, r, c int) types.Grid {
		out := make(types.Grid, r)
		for i := range out {
			out[i] = g.CapacityVector(c, lo, hi)
		}
		return out
	}
	return Variant{
		Name:      name,
		RowPrefix: prefix,
		FixedCols: 1,
		RowBounds: rows,
		ColBounds: [2]int{1, 1},
		Min:       lo,
		Max:       hi,
		columns:   func(int) []string { return []string{types.CapacityColumn} },
		generate: func(g *random.Generator, s types.Shape) types.Grid {
			return draw(g, s.Rows, s.Cols)
		},
		appendRows: draw,
		appendCols: draw,
	}
}

// Preferences is the n × m table of agent valuations for items.
func Preferences() Variant {
	return Variant{
		Name:      types.TablePreferences,
		RowPrefix: types.AgentLabelPrefix,
		RowBounds: [2]int{types.MinAgents, types.MaxAgents},
		ColBounds: [2]int{types.MinItems, types.MaxItems},
		Min:       0,
		Max:       preferenceMax,
		columns: func(cols int) []string {
			return types.Labels(types.ItemLabelPrefix, cols)
		},
		generate: func(g *random.Generator, s types.Shape) types.Grid {
			return g.PreferenceMatrix(s.Rows, s.Cols, random.DefaultRowSum)
		},
		appendRows: func(g *random.Generator, rows, cols int) types.Grid {
			return g.PreferenceMatrix(rows, cols, random.DefaultRowSum)
		},
		appendCols: func(g *random.Generator, rows, cols int) types.Grid {
			return g.PreferenceColumns(rows, cols)
		},
	}
}

// ForTable returns the variant of a standard table kind.
func ForTable(name string) (Variant, error) {
	switch name {
	case types.TableAgentCapacities:
		return AgentCapacities(), nil
	case types.TableItemCapacities:
		return ItemCapacities(), nil
	case types.TablePreferences:
		return Preferences(), nil
	default:
		return Variant{}, fmt.Errorf("%w: %q", types.ErrUnknownTable, name)
	}
}

// ValidateShape checks shape against the variant bounds.
func (v Variant) ValidateShape(shape types.Shape) error {
	if shape.Rows < v.RowBounds[0] || shape.Rows > v.RowBounds[1] {
		return fmt.Errorf("%w: %s rows %d outside [%d, %d]", types.ErrValidation, v.Name, shape.Rows, v.RowBounds[0], v.RowBounds[1])
	}
	if shape.Cols < v.ColBounds[0] || shape.Cols > v.ColBounds[1] {
		return fmt.Errorf("%w: %s columns %d outside [%d, %d]", types.ErrValidation, v.Name, shape.Cols, v.ColBounds[0], v.ColBounds[1])
	}
	return nil
}

// InDomain reports whether x is a legal cell value.
func (v Variant) InDomain(x int) bool {
	return x >= v.Min && x <= v.Max
}

// build labels grid from its own shape.
func (v Variant) build(grid types.Grid) *types.Table {
	shape := grid.Shape()
	return &types.Table{
		Name:    v.Name,
		Rows:    types.Labels(v.RowPrefix, shape.Rows),
		Columns: v.columns(shape.Cols),
		Values:  grid,
	}
}
