// Package tabular keeps one editable table consistent with the problem
// dimensions across resizes, uploads, shuffles and cell edits, preserving as
// much earlier input as the request allows.
package tabular

import (
	"fmt"

	"github.com/mesh-intelligence/coursealloc/internal/coerce"
	"github.com/mesh-intelligence/coursealloc/internal/random"
	"github.com/mesh-intelligence/coursealloc/internal/tableio"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// State owns the stored table of one variant. Reconcile is its only
// mutator. A State is not safe for concurrent use.
type State struct {
	variant Variant
	gen     *random.Generator
	table   *types.Table
}

// New returns an empty State; the table is created by the first Reconcile.
func New(v Variant, gen *random.Generator) *State {
	return &State{variant: v, gen: gen}
}

// Restore returns a State holding a previously stored table. The table is
// relabelled from its shape and its values are checked against the variant.
func Restore(v Variant, gen *random.Generator, t *types.Table) (*State, error) {
	s := New(v, gen)
	if t == nil {
		return s, nil
	}
	shape := t.Values.Shape()
	if err := v.ValidateShape(shape); err != nil {
		return nil, err
	}
	for i, row := range t.Values {
		if len(row) != shape.Cols {
			return nil, fmt.Errorf("%w: stored %s row %d has %d cells, want %d",
				types.ErrValidation, v.Name, i+1, len(row), shape.Cols)
		}
	}
	// Labels are rebuilt from the shape; stored ones must still agree with it.
	if (len(t.Rows) > 0 && len(t.Rows) != shape.Rows) || (len(t.Columns) > 0 && len(t.Columns) != shape.Cols) {
		return nil, fmt.Errorf("%w: stored %s has %d×%d labels for %s values",
			types.ErrValidation, v.Name, len(t.Rows), len(t.Columns), shape)
	}
	if err := s.checkDomain(t.Values, types.ErrValidation); err != nil {
		return nil, err
	}
	s.table = v.build(t.Values.Clone())
	return s, nil
}

// Variant returns the table variant.
func (s *State) Variant() Variant {
	return s.variant
}

// Table returns a copy of the stored table, or nil before the first
// successful Reconcile.
func (s *State) Table() *types.Table {
	return s.table.Clone()
}

// Reconcile brings the stored table into agreement with shape and req and
// returns a copy of the result.
//
// Without stored state an Upload of the requested shape is adopted verbatim
// and anything else produces a random table. With stored state an Upload
// replaces the table when its shape equals the stored shape and otherwise
// overwrites the top-left block; a Shuffle regenerates; an Edit sets cells.
// The result is then resized: shrinking truncates, growth on one axis
// appends random rows or columns, growth on both axes regenerates.
//
// On error the stored table is unchanged and returned alongside the error.
// A failed first Upload returns a fresh random table that is not stored.
func (s *State) Reconcile(shape types.Shape, req Request) (*types.Table, error) {
	if err := s.variant.ValidateShape(shape); err != nil {
		return s.Table(), err
	}
	if req == nil {
		req = Resize{}
	}
	if s.table == nil {
		return s.initial(shape, req)
	}

	next, err := s.next(shape, req)
	if err != nil {
		return s.Table(), err
	}
	s.table = next
	return s.Table(), nil
}

func (s *State) initial(shape types.Shape, req Request) (*types.Table, error) {
	switch r := req.(type) {
	case Upload:
		grid, err := s.parse(r.Payload)
		if err == nil && grid.Shape() != shape {
			err = fmt.Errorf("%w: uploaded %s has shape %s, want %s", types.ErrImport, s.variant.Name, grid.Shape(), shape)
		}
		if err != nil {
			return s.variant.build(s.variant.generate(s.gen, shape)), err
		}
		s.table = s.variant.build(grid)
	case Edit:
		return nil, fmt.Errorf("%w: %s has no cells to edit yet", types.ErrValidation, s.variant.Name)
	default:
		s.table = s.variant.build(s.variant.generate(s.gen, shape))
	}
	return s.Table(), nil
}

func (s *State) next(shape types.Shape, req Request) (*types.Table, error) {
	cur := s.table.Values.Clone()

	switch r := req.(type) {
	case Resize:
	case Shuffle:
		return s.variant.build(s.variant.generate(s.gen, shape)), nil
	case Upload:
		grid, err := s.parse(r.Payload)
		if err != nil {
			return nil, err
		}
		if grid.Shape() == cur.Shape() {
			cur = grid
		} else {
			overwriteTopLeft(cur, grid)
		}
	case Edit:
		if err := s.applyEdits(cur, r.Cells); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported request %T", types.ErrValidation, req)
	}

	return s.variant.build(s.resize(cur, shape)), nil
}

// parse reads an upload and checks its values against the domain.
func (s *State) parse(payload []byte) (types.Grid, error) {
	grid, _, err := tableio.ParseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.variant.Name, err)
	}
	if err := s.checkDomain(grid, types.ErrImport); err != nil {
		return nil, err
	}
	return grid, nil
}

func (s *State) checkDomain(grid types.Grid, kind error) error {
	for i, row := range grid {
		for j, x := range row {
			if !s.variant.InDomain(x) {
				return fmt.Errorf("%w: %s value %d at row %d column %d outside [%d, %d]",
					kind, s.variant.Name, x, i+1, j+1, s.variant.Min, s.variant.Max)
			}
		}
	}
	return nil
}

func (s *State) applyEdits(grid types.Grid, cells []CellEdit) error {
	shape := grid.Shape()
	for _, c := range cells {
		if c.Row < 0 || c.Row >= shape.Rows || c.Col < 0 || c.Col >= shape.Cols {
			return fmt.Errorf("%w: %s cell (%d, %d) outside %s", types.ErrValidation, s.variant.Name, c.Row, c.Col, shape)
		}
		v, err := coerce.Int(c.Value)
		if err != nil {
			return fmt.Errorf("%s cell (%d, %d): %w", s.variant.Name, c.Row, c.Col, err)
		}
		if !s.variant.InDomain(v) {
			return fmt.Errorf("%w: %s value %d outside [%d, %d]", types.ErrValidation, s.variant.Name, v, s.variant.Min, s.variant.Max)
		}
		grid[c.Row][c.Col] = v
	}
	return nil
}

// resize adapts grid to shape. Growth on both axes regenerates the table.
func (s *State) resize(grid types.Grid, shape types.Shape) types.Grid {
	old := grid.Shape()
	rowsGrow := shape.Rows > old.Rows
	colsGrow := shape.Cols > old.Cols

	switch {
	case rowsGrow && colsGrow:
		return s.variant.generate(s.gen, shape)
	case rowsGrow:
		out := truncate(grid, old.Rows, shape.Cols)
		return append(out, s.variant.appendRows(s.gen, shape.Rows-old.Rows, shape.Cols)...)
	case colsGrow:
		out := truncate(grid, shape.Rows, old.Cols)
		extra := s.variant.appendCols(s.gen, shape.Rows, shape.Cols-old.Cols)
		for i := range out {
			out[i] = append(out[i], extra[i]...)
		}
		return out
	default:
		return truncate(grid, shape.Rows, shape.Cols)
	}
}

// truncate keeps the top-left rows × cols block.
func truncate(grid types.Grid, rows, cols int) types.Grid {
	out := make(types.Grid, rows)
	for i := range out {
		out[i] = append([]int(nil), grid[i][:cols]...)
	}
	return out
}

// overwriteTopLeft copies the overlapping block of src into dst.
func overwriteTopLeft(dst, src types.Grid) {
	rows := min(len(dst), len(src))
	for i := 0; i < rows; i++ {
		cols := min(len(dst[i]), len(src[i]))
		copy(dst[i][:cols], src[i][:cols])
	}
}
