// Package tableio reads uploaded CSV payloads into integer grids and writes
// tables back out as CSV downloads.
//
// Downloads use a labelled layout: the header row starts with an empty cell
// followed by the column labels, and every data row starts with its row
// label. Parse recognizes that layout, so a downloaded file uploads back
// unchanged.
package tableio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/coursealloc/internal/coerce"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Parse reads a CSV payload and returns its numeric grid and shape.
//
// A first record is a header when its first cell is empty, when any of its
// remaining cells is non-numeric, or when it is a single non-numeric cell.
// Row labels are declared by an empty first header cell, or inferred when
// the first cell of every data row is non-numeric; the label column is
// excluded from the grid. All failures wrap types.ErrImport.
func Parse(r io.Reader) (types.Grid, types.Shape, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, types.Shape{}, fmt.Errorf("%w: reading csv: %v", types.ErrImport, err)
	}
	if len(records) == 0 {
		return nil, types.Shape{}, fmt.Errorf("%w: empty payload", types.ErrImport)
	}

	var header []string
	if isHeader(records[0]) {
		header = records[0]
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, types.Shape{}, fmt.Errorf("%w: no data rows", types.ErrImport)
	}

	labelled := header != nil && strings.TrimSpace(header[0]) == ""
	if !labelled {
		labelled = firstColumnIsText(records)
	}

	start := 0
	if labelled {
		start = 1
	}
	width := len(records[0]) - start
	if width <= 0 {
		return nil, types.Shape{}, fmt.Errorf("%w: no numeric columns", types.ErrImport)
	}
	if header != nil && len(header) != width+start {
		return nil, types.Shape{}, fmt.Errorf("%w: header has %d columns, data has %d", types.ErrImport, len(header), width+start)
	}

	grid := make(types.Grid, len(records))
	for i, rec := range records {
		if len(rec)-start != width {
			return nil, types.Shape{}, fmt.Errorf("%w: row %d has %d columns, want %d", types.ErrImport, i+1, len(rec)-start, width)
		}
		row := make([]int, width)
		for j, cell := range rec[start:] {
			v, err := coerce.String(cell)
			if err != nil {
				return nil, types.Shape{}, fmt.Errorf("%w: row %d column %d: %v", types.ErrImport, i+1, j+1, err)
			}
			row[j] = v
		}
		grid[i] = row
	}
	return grid, grid.Shape(), nil
}

// ParseBytes is Parse over an in-memory payload.
func ParseBytes(payload []byte) (types.Grid, types.Shape, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, types.Shape{}, fmt.Errorf("%w: empty payload", types.ErrImport)
	}
	return Parse(bytes.NewReader(payload))
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	if strings.TrimSpace(rec[0]) == "" {
		return true
	}
	if len(rec) == 1 {
		return !coerce.IsNumeric(rec[0])
	}
	for _, cell := range rec[1:] {
		if !coerce.IsNumeric(cell) {
			return true
		}
	}
	return false
}

func firstColumnIsText(records [][]string) bool {
	for _, rec := range records {
		if len(rec) < 2 || coerce.IsNumeric(rec[0]) {
			return false
		}
	}
	return true
}

// ErrNilTable is returned when writing a table that does not exist yet.
var ErrNilTable = errors.New("table is nil")

// Write encodes t as labelled CSV.
func Write(w io.Writer, t *types.Table) error {
	if t == nil {
		return ErrNilTable
	}
	cw := csv.NewWriter(w)
	header := append([]string{""}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	rec := make([]string, len(t.Columns)+1)
	for i, row := range t.Values {
		rec[0] = t.Rows[i]
		for j, v := range row {
			rec[j+1] = fmt.Sprint(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode returns t as labelled CSV bytes.
func Encode(t *types.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
