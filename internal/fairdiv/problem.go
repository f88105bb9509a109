package fairdiv

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// problem is the index-based view of an Instance.
type problem struct {
	agents   []string
	items    []string
	agentCap []int
	itemCap  []int
	val      [][]int
	itemIdx  map[string]int
}

func newProblem(inst types.Instance) (*problem, error) {
	p := &problem{
		agents:   inst.Agents,
		items:    inst.Items,
		agentCap: make([]int, len(inst.Agents)),
		itemCap:  make([]int, len(inst.Items)),
		val:      make([][]int, len(inst.Agents)),
		itemIdx:  make(map[string]int, len(inst.Items)),
	}
	if len(p.agents) == 0 || len(p.items) == 0 {
		return nil, fmt.Errorf("%w: instance has no agents or no items", types.ErrAlgorithm)
	}
	for j, item := range p.items {
		c, ok := inst.ItemCapacities[item]
		if !ok || c < 0 {
			return nil, fmt.Errorf("%w: invalid capacity for %s", types.ErrAlgorithm, item)
		}
		p.itemCap[j] = c
		p.itemIdx[item] = j
	}
	for i, agent := range p.agents {
		c, ok := inst.AgentCapacities[agent]
		if !ok || c < 0 {
			return nil, fmt.Errorf("%w: invalid capacity for %s", types.ErrAlgorithm, agent)
		}
		p.agentCap[i] = c
		vals, ok := inst.Valuations[agent]
		if !ok {
			return nil, fmt.Errorf("%w: no valuations for %s", types.ErrAlgorithm, agent)
		}
		p.val[i] = make([]int, len(p.items))
		for j, item := range p.items {
			v, ok := vals[item]
			if !ok {
				return nil, fmt.Errorf("%w: no valuation of %s by %s", types.ErrAlgorithm, item, agent)
			}
			p.val[i][j] = v
		}
	}
	return p, nil
}

// assignment tracks remaining capacities and bundles while an algorithm runs.
type assignment struct {
	p        *problem
	agentRem []int
	itemRem  []int
	held     [][]bool
}

func newAssignment(p *problem) *assignment {
	a := &assignment{
		p:        p,
		agentRem: append([]int(nil), p.agentCap...),
		itemRem:  append([]int(nil), p.itemCap...),
		held:     make([][]bool, len(p.agents)),
	}
	for i := range a.held {
		a.held[i] = make([]bool, len(p.items))
	}
	return a
}

// available reports whether agent i may still receive item j.
func (a *assignment) available(i, j int) bool {
	return a.agentRem[i] > 0 && a.itemRem[j] > 0 && !a.held[i][j]
}

func (a *assignment) give(i, j int) {
	a.held[i][j] = true
	a.agentRem[i]--
	a.itemRem[j]--
}

// best returns the item agent i values most among those it may still
// receive under weights w, lowest index first on ties, or -1.
func (a *assignment) best(i int, w [][]int) int {
	best := -1
	for j := range a.p.items {
		if !a.available(i, j) {
			continue
		}
		if best < 0 || w[i][j] > w[i][best] {
			best = j
		}
	}
	return best
}

func (a *assignment) allocation() types.Allocation {
	out := make(types.Allocation, len(a.p.agents))
	for i, agent := range a.p.agents {
		bundle := []string{}
		for j, item := range a.p.items {
			if a.held[i][j] {
				bundle = append(bundle, item)
			}
		}
		out[agent] = bundle
	}
	return out
}

// bundleIndexes converts an allocation into per-agent item indexes, checking
// that every name is known.
func (p *problem) bundleIndexes(alloc types.Allocation) ([][]int, error) {
	out := make([][]int, len(p.agents))
	known := make(map[string]bool, len(p.agents))
	for i, agent := range p.agents {
		known[agent] = true
		for _, item := range alloc[agent] {
			j, ok := p.itemIdx[item]
			if !ok {
				return nil, fmt.Errorf("%w: %s received unknown item %q", types.ErrAlgorithm, agent, item)
			}
			out[i] = append(out[i], j)
		}
		sort.Ints(out[i])
	}
	for agent := range alloc {
		if !known[agent] {
			return nil, fmt.Errorf("%w: allocation names unknown agent %q", types.ErrAlgorithm, agent)
		}
	}
	return out, nil
}

// Check verifies that alloc respects every capacity of inst and assigns no
// seat twice to the same agent.
func Check(inst types.Instance, alloc types.Allocation) error {
	p, err := newProblem(inst)
	if err != nil {
		return err
	}
	bundles, err := p.bundleIndexes(alloc)
	if err != nil {
		return err
	}
	used := make([]int, len(p.items))
	for i, b := range bundles {
		if len(b) > p.agentCap[i] {
			return fmt.Errorf("%w: %s received %d items, capacity %d", types.ErrAlgorithm, p.agents[i], len(b), p.agentCap[i])
		}
		for k, j := range b {
			if k > 0 && b[k-1] == j {
				return fmt.Errorf("%w: %s received %s twice", types.ErrAlgorithm, p.agents[i], p.items[j])
			}
			used[j]++
		}
	}
	for j, u := range used {
		if u > p.itemCap[j] {
			return fmt.Errorf("%w: %s assigned %d times, capacity %d", types.ErrAlgorithm, p.items[j], u, p.itemCap[j])
		}
	}
	return nil
}
