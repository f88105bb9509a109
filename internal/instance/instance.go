// Package instance converts the three finalized tables into the problem
// instance consumed by the allocation collaborator.
package instance

import (
	"fmt"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// Build assembles an Instance from agent capacities (n × 1), item capacities
// (m × 1) and preferences (n × m). Agent and item identities are taken from
// the row labels. Conflict sets are always empty.
func Build(agents, items, prefs *types.Table) (types.Instance, error) {
	if agents == nil || items == nil || prefs == nil {
		return types.Instance{}, fmt.Errorf("%w: missing table", types.ErrValidation)
	}
	n := len(agents.Rows)
	m := len(items.Rows)
	if got := prefs.Shape(); got.Rows != n || got.Cols != m {
		return types.Instance{}, fmt.Errorf("%w: preferences shape %s does not match (%d, %d)", types.ErrValidation, got, n, m)
	}
	if len(agents.Values) != n || len(items.Values) != m || len(prefs.Values) != n {
		return types.Instance{}, fmt.Errorf("%w: table values do not match labels", types.ErrValidation)
	}

	inst := types.Instance{
		Agents:          append([]string(nil), agents.Rows...),
		Items:           append([]string(nil), items.Rows...),
		AgentCapacities: make(map[string]int, n),
		ItemCapacities:  make(map[string]int, m),
		Valuations:      make(map[string]map[string]int, n),
		AgentConflicts:  make(map[string][]string, n),
		ItemConflicts:   make(map[string][]string, m),
	}
	for i, agent := range inst.Agents {
		inst.AgentCapacities[agent] = agents.Values[i][0]
		inst.AgentConflicts[agent] = []string{}
		vals := make(map[string]int, m)
		for j, item := range inst.Items {
			vals[item] = prefs.Values[i][j]
		}
		inst.Valuations[agent] = vals
	}
	for j, item := range inst.Items {
		inst.ItemCapacities[item] = items.Values[j][0]
		inst.ItemConflicts[item] = []string{}
	}
	return inst, nil
}
