package fairdiv

import (
	"fmt"

	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

var _ types.Allocator = (*Divider)(nil)

// Divider implements types.Allocator with the algorithms of this package.
// It holds no state and is safe for concurrent use.
type Divider struct{}

// New returns a Divider.
func New() *Divider {
	return &Divider{}
}

// Divide runs alg on inst. The matching algorithms also return one
// explanation string per agent.
func (d *Divider) Divide(inst types.Instance, alg types.Algorithm) (types.Allocation, map[string]string, error) {
	p, err := newProblem(inst)
	if err != nil {
		return nil, nil, err
	}

	var (
		a            *assignment
		explanations map[string]string
	)
	switch alg {
	case types.AlgIteratedMaxMatchingUnadjusted:
		a, explanations = iteratedMatching(p, false)
	case types.AlgIteratedMaxMatchingAdjusted:
		a, explanations = iteratedMatching(p, true)
	case types.AlgSerialDictatorship:
		a = serialDictatorship(p)
	case types.AlgRoundRobin:
		a = roundRobin(p, false)
	case types.AlgBidirectionalRoundRobin:
		a = roundRobin(p, true)
	case types.AlgUtilitarianMatching:
		a = utilitarianMatching(p)
	default:
		return nil, nil, fmt.Errorf("%w: %w: %q", types.ErrAlgorithm, types.ErrUnknownAlgorithm, alg)
	}
	return a.allocation(), explanations, nil
}

// Metrics scores alloc on inst.
func (d *Divider) Metrics(inst types.Instance, alloc types.Allocation) (types.Stats, error) {
	p, err := newProblem(inst)
	if err != nil {
		return types.Stats{}, err
	}
	bundles, err := p.bundleIndexes(alloc)
	if err != nil {
		return types.Stats{}, err
	}

	n := len(p.agents)
	own := make([]int, n)
	for i := range p.agents {
		own[i] = p.bundleValue(i, bundles[i], len(bundles[i]))
	}

	var st types.Stats
	st.EgalitarianValue = float64(own[0])
	envySum := 0
	maxEnvy := 0
	for i := 0; i < n; i++ {
		st.UtilitarianValue += float64(own[i])
		st.EgalitarianValue = min(st.EgalitarianValue, float64(own[i]))
		worst := 0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			envy := p.bundleValue(i, bundles[j], p.agentCap[i]) - own[i]
			worst = max(worst, envy)
		}
		envySum += worst
		maxEnvy = max(maxEnvy, worst)
	}
	st.MaxEnvy = float64(maxEnvy)
	st.MeanEnvy = float64(envySum) / float64(n)
	return st, nil
}
