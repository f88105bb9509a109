package fairdiv

import "math"

// network is a residual graph for min-cost flow with integer capacities.
type network struct {
	adj [][]arc
}

type arc struct {
	to, rev   int
	cap, cost int
}

func newNetwork(nodes int) *network {
	return &network{adj: make([][]arc, nodes)}
}

// addArc adds u→v and its residual twin and returns the index of the
// forward arc in adj[u].
func (nw *network) addArc(u, v, capacity, cost int) int {
	nw.adj[u] = append(nw.adj[u], arc{to: v, rev: len(nw.adj[v]), cap: capacity, cost: cost})
	nw.adj[v] = append(nw.adj[v], arc{to: u, rev: len(nw.adj[u]) - 1, cap: 0, cost: -cost})
	return len(nw.adj[u]) - 1
}

// maxProfit pushes flow from s to t along shortest paths while the path cost
// is negative, which yields a minimum-cost flow of any size. Costs are
// negated weights, so the result is a maximum-weight flow.
func (nw *network) maxProfit(s, t int) {
	n := len(nw.adj)
	dist := make([]int, n)
	inQueue := make([]bool, n)
	prevNode := make([]int, n)
	prevArc := make([]int, n)

	for {
		for v := range dist {
			dist[v] = math.MaxInt
			prevNode[v] = -1
		}
		dist[s] = 0
		queue := []int{s}
		inQueue[s] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			inQueue[u] = false
			for k, e := range nw.adj[u] {
				if e.cap <= 0 || dist[u]+e.cost >= dist[e.to] {
					continue
				}
				dist[e.to] = dist[u] + e.cost
				prevNode[e.to] = u
				prevArc[e.to] = k
				if !inQueue[e.to] {
					inQueue[e.to] = true
					queue = append(queue, e.to)
				}
			}
		}
		if dist[t] == math.MaxInt || dist[t] >= 0 {
			return
		}

		push := math.MaxInt
		for v := t; v != s; v = prevNode[v] {
			push = min(push, nw.adj[prevNode[v]][prevArc[v]].cap)
		}
		for v := t; v != s; v = prevNode[v] {
			e := &nw.adj[prevNode[v]][prevArc[v]]
			e.cap -= push
			nw.adj[v][e.rev].cap += push
		}
	}
}

// flowOn reports the flow carried by forward arc k of node u.
func (nw *network) flowOn(u, k int) int {
	e := nw.adj[u][k]
	return nw.adj[e.to][e.rev].cap
}
