package types

import "time"

// Instance is the finalized problem handed to the allocation collaborator.
// Agents and Items keep table order so algorithms are deterministic.
type Instance struct {
	Agents          []string                  `json:"agents"`
	Items           []string                  `json:"items"`
	AgentCapacities map[string]int            `json:"agent_capacities"`
	ItemCapacities  map[string]int            `json:"item_capacities"`
	Valuations      map[string]map[string]int `json:"valuations"`
	AgentConflicts  map[string][]string       `json:"agent_conflicts"`
	ItemConflicts   map[string][]string       `json:"item_conflicts"`
}

// Value returns the valuation of agent for item.
func (in Instance) Value(agent, item string) int {
	return in.Valuations[agent][item]
}

// Allocation maps each agent to the items assigned to it.
type Allocation map[string][]string

// Stats are the summary metrics of one allocation.
type Stats struct {
	UtilitarianValue float64 `json:"utilitarian_value"`
	EgalitarianValue float64 `json:"egalitarian_value"`
	MaxEnvy          float64 `json:"max_envy"`
	MeanEnvy         float64 `json:"mean_envy"`
}

// Outcome is the result of running one algorithm. Err is set when the
// collaborator failed; Allocation and Stats are then empty.
type Outcome struct {
	Algorithm    Algorithm         `json:"algorithm"`
	Allocation   Allocation        `json:"allocation,omitempty"`
	Explanations map[string]string `json:"explanations,omitempty"`
	Stats        *Stats            `json:"stats,omitempty"`
	Err          error             `json:"-"`
	Error        string            `json:"error,omitempty"`
}

// Allocator is the allocation collaborator: it divides an instance with a
// named algorithm and scores an allocation.
type Allocator interface {
	// Divide returns the allocation and, for algorithms that produce them,
	// per-agent explanation strings.
	Divide(inst Instance, alg Algorithm) (Allocation, map[string]string, error)

	// Metrics computes the summary statistics of alloc on inst.
	Metrics(inst Instance, alloc Allocation) (Stats, error)
}

// RunRecord is a persisted algorithm run.
type RunRecord struct {
	RunID     string        `json:"run_id"`
	SessionID string        `json:"session_id"`
	Outcomes  []Outcome     `json:"outcomes"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}
