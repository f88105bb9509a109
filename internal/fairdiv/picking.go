package fairdiv

// roundRobin lets agents pick one item each per round in order. With
// bidirectional set the order reverses after every round.
func roundRobin(p *problem, bidirectional bool) *assignment {
	a := newAssignment(p)
	order := make([]int, len(p.agents))
	for i := range order {
		order[i] = i
	}
	for {
		picked := false
		for _, i := range order {
			if a.agentRem[i] == 0 {
				continue
			}
			j := a.best(i, p.val)
			if j < 0 {
				continue
			}
			a.give(i, j)
			picked = true
		}
		if !picked {
			return a
		}
		if bidirectional {
			for l, r := 0, len(order)-1; l < r; l, r = l+1, r-1 {
				order[l], order[r] = order[r], order[l]
			}
		}
	}
}

// serialDictatorship lets each agent in order take its whole bundle.
func serialDictatorship(p *problem) *assignment {
	a := newAssignment(p)
	for i := range p.agents {
		for a.agentRem[i] > 0 {
			j := a.best(i, p.val)
			if j < 0 {
				break
			}
			a.give(i, j)
		}
	}
	return a
}
