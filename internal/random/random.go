// Package random generates capacity vectors and preference matrices for
// freshly created or grown tables.
package random

import (
	"math"
	"math/rand/v2"
	"time"
)

// DefaultRowSum is the total each generated preference row adds up to.
const DefaultRowSum = 1000

// Bounds for raw preference draws and appended preference columns.
const (
	drawMax      = 100
	columnMin    = 1
	columnMaxExc = 1000
)

// Generator draws random table contents. It is not safe for concurrent use;
// each session owns its own Generator.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator seeded with seed. A zero seed uses the clock.
func New(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a uniform draw in [min, max). It returns min when the range
// is empty.
func (g *Generator) Intn(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rng.IntN(max-min)
}

// CapacityVector returns count independent uniform draws in [min, max).
func (g *Generator) CapacityVector(count, min, max int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = g.Intn(min, max)
	}
	return out
}

// PreferenceMatrix returns rows independent preference rows of width cols,
// each summing exactly to target.
func (g *Generator) PreferenceMatrix(rows, cols, target int) [][]int {
	out := make([][]int, rows)
	for i := range out {
		out[i] = g.PreferenceRow(cols, target)
	}
	return out
}

// PreferenceRow draws cols values in [0, 100), scales them to target, rounds
// and corrects the last cell so the row sums to target. A row of zero draws
// is redrawn. If correcting the last cell would make it negative the surplus
// is taken one unit at a time from the non-zero cells, last first.
func (g *Generator) PreferenceRow(cols, target int) []int {
	if cols <= 0 {
		return []int{}
	}
	draws := make([]int, cols)
	sum := 0
	for sum == 0 {
		sum = 0
		for j := range draws {
			draws[j] = g.rng.IntN(drawMax)
			sum += draws[j]
		}
	}

	row := make([]int, cols)
	total := 0
	for j, d := range draws {
		row[j] = int(math.Round(float64(d) * float64(target) / float64(sum)))
		total += row[j]
	}

	diff := target - total
	last := cols - 1
	if row[last]+diff >= 0 {
		row[last] += diff
		return row
	}
	for diff < 0 {
		for j := last; j >= 0 && diff < 0; j-- {
			if row[j] > 0 {
				row[j]--
				diff++
			}
		}
	}
	return row
}

// PreferenceColumns returns a rows × cols block of uniform draws in
// [1, 1000) used when columns are appended to an existing preference table.
func (g *Generator) PreferenceColumns(rows, cols int) [][]int {
	out := make([][]int, rows)
	for i := range out {
		out[i] = g.CapacityVector(cols, columnMin, columnMaxExc)
	}
	return out
}
