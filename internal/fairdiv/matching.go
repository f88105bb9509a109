package fairdiv

import (
	"fmt"
	"strings"
)

// pairEdge remembers which arc connects agent i to item j.
type pairEdge struct {
	i, j int
	arc  int
}

// weightedMatching builds the agent/item network under weights w and returns
// the matched pairs. agentLimit caps how many items each agent may take.
func weightedMatching(a *assignment, w [][]int, agentLimit func(i int) int) [][2]int {
	p := a.p
	n, m := len(p.agents), len(p.items)
	source, sink := n+m, n+m+1
	nw := newNetwork(n + m + 2)

	var edges []pairEdge
	for i := 0; i < n; i++ {
		limit := agentLimit(i)
		if limit <= 0 {
			continue
		}
		nw.addArc(source, i, limit, 0)
		for j := 0; j < m; j++ {
			if !a.available(i, j) {
				continue
			}
			k := nw.addArc(i, n+j, 1, -w[i][j])
			edges = append(edges, pairEdge{i: i, j: j, arc: k})
		}
	}
	for j := 0; j < m; j++ {
		if a.itemRem[j] > 0 {
			nw.addArc(n+j, sink, a.itemRem[j], 0)
		}
	}

	nw.maxProfit(source, sink)

	var pairs [][2]int
	for _, e := range edges {
		if nw.flowOn(e.i, e.arc) > 0 {
			pairs = append(pairs, [2]int{e.i, e.j})
		}
	}
	return pairs
}

// utilitarianMatching maximizes the total value in a single flow.
func utilitarianMatching(p *problem) *assignment {
	a := newAssignment(p)
	for _, pr := range weightedMatching(a, p.val, func(i int) int { return a.agentRem[i] }) {
		a.give(pr[0], pr[1])
	}
	return a
}

// iteratedMatching runs matching rounds until no agent gains an item. With
// adjust set, an agent that missed its best available item is compensated on
// its next-best item. It returns per-agent explanation strings.
func iteratedMatching(p *problem, adjust bool) (*assignment, map[string]string) {
	a := newAssignment(p)
	w := make([][]int, len(p.val))
	for i := range p.val {
		w[i] = append([]int(nil), p.val[i]...)
	}
	logs := make([]strings.Builder, len(p.agents))

	for round := 1; ; round++ {
		// Best value each agent could still get, before the round changes
		// availability.
		bestBefore := make([]int, len(p.agents))
		for i := range p.agents {
			bestBefore[i] = -1
			if j := a.best(i, w); j >= 0 {
				bestBefore[i] = w[i][j]
			}
		}

		pairs := weightedMatching(a, w, func(i int) int { return min(a.agentRem[i], 1) })
		if len(pairs) == 0 {
			break
		}
		for _, pr := range pairs {
			a.give(pr[0], pr[1])
		}

		for _, pr := range pairs {
			i, j := pr[0], pr[1]
			fmt.Fprintf(&logs[i], "Round %d: you received %s, worth %d to you.", round, p.items[j], w[i][j])
			if !adjust {
				logs[i].WriteString(" ")
				continue
			}
			diff := bestBefore[i] - w[i][j]
			if diff > 0 {
				if next := a.best(i, w); next >= 0 {
					w[i][next] += diff
					fmt.Fprintf(&logs[i], " Your value for %s was raised by %d as compensation.", p.items[next], diff)
				}
			}
			logs[i].WriteString(" ")
		}
	}

	explanations := make(map[string]string, len(p.agents))
	for i, agent := range p.agents {
		total := 0
		for j := range p.items {
			if a.held[i][j] {
				total += p.val[i][j]
			}
		}
		if logs[i].Len() == 0 {
			explanations[agent] = fmt.Sprintf("You received no courses. Your total value is %d.", total)
			continue
		}
		fmt.Fprintf(&logs[i], "Your total value is %d.", total)
		explanations[agent] = logs[i].String()
	}
	return a, explanations
}
