package types

import "fmt"

// Problem dimension bounds.
const (
	MinAgents = 2
	MaxAgents = 500
	MinItems  = 3
	MaxItems  = 100
)

// Dimensions is the number of agents (n) and items (m) in a problem.
type Dimensions struct {
	Agents int `json:"agents"`
	Items  int `json:"items"`
}

// DefaultDimensions is the smallest valid problem.
var DefaultDimensions = Dimensions{Agents: MinAgents, Items: MinItems}

// Validate checks both counts against their bounds. It returns an error
// wrapping ErrValidation on failure.
func (d Dimensions) Validate() error {
	if d.Agents < MinAgents || d.Agents > MaxAgents {
		return fmt.Errorf("%w: agents %d outside [%d, %d]", ErrValidation, d.Agents, MinAgents, MaxAgents)
	}
	if d.Items < MinItems || d.Items > MaxItems {
		return fmt.Errorf("%w: items %d outside [%d, %d]", ErrValidation, d.Items, MinItems, MaxItems)
	}
	return nil
}

// ShapeOf returns the expected shape of the named table for these dimensions.
func (d Dimensions) ShapeOf(table string) (Shape, error) {
	switch table {
	case TableAgentCapacities:
		return Shape{Rows: d.Agents, Cols: 1}, nil
	case TableItemCapacities:
		return Shape{Rows: d.Items, Cols: 1}, nil
	case TablePreferences:
		return Shape{Rows: d.Agents, Cols: d.Items}, nil
	default:
		return Shape{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
}
