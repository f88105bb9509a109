// Package coerce normalizes heterogeneous cell values into canonical ints.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Int converts a cell value to an int. Strings are parsed as floating point
// first so "42.0" is accepted; fractional values truncate toward zero.
// Returns an error wrapping types.ErrCoercion for anything non-numeric.
func Int(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return fromFloat(float64(x), v)
	case float32:
		return fromFloat(float64(x), v)
	case float64:
		return fromFloat(x, v)
	case json.Number:
		return String(x.String())
	case string:
		return String(x)
	case nil:
		return 0, fmt.Errorf("%w: empty cell", types.ErrCoercion)
	default:
		return 0, fmt.Errorf("%w: unsupported cell type %T", types.ErrCoercion, v)
	}
}

// String parses a textual cell.
func String(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty cell", types.ErrCoercion)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", types.ErrCoercion, s)
	}
	return fromFloat(f, s)
}

func fromFloat(f float64, orig any) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", types.ErrCoercion, orig)
	}
	t := math.Trunc(f)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v out of range", types.ErrCoercion, orig)
	}
	return int(t), nil
}

// IsNumeric reports whether s coerces cleanly.
func IsNumeric(s string) bool {
	_, err := String(s)
	return err == nil
}
