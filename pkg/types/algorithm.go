package types

import "fmt"

// Algorithm identifies one of the allocation algorithms offered by the
// collaborator.
type Algorithm string

// Supported algorithms.
const (
	AlgIteratedMaxMatchingUnadjusted Algorithm = "iterated_maximum_matching_unadjusted"
	AlgIteratedMaxMatchingAdjusted   Algorithm = "iterated_maximum_matching_adjusted"
	AlgSerialDictatorship            Algorithm = "serial_dictatorship"
	AlgRoundRobin                    Algorithm = "round_robin"
	AlgBidirectionalRoundRobin       Algorithm = "bidirectional_round_robin"
	AlgUtilitarianMatching           Algorithm = "utilitarian_matching"
)

// Algorithms lists every algorithm in display order.
var Algorithms = []Algorithm{
	AlgIteratedMaxMatchingUnadjusted,
	AlgIteratedMaxMatchingAdjusted,
	AlgSerialDictatorship,
	AlgRoundRobin,
	AlgBidirectionalRoundRobin,
	AlgUtilitarianMatching,
}

var algorithmTitles = map[Algorithm]string{
	AlgIteratedMaxMatchingUnadjusted: "Iterated maximum matching unadjusted",
	AlgIteratedMaxMatchingAdjusted:   "Iterated maximum matching adjusted",
	AlgSerialDictatorship:            "Serial dictatorship",
	AlgRoundRobin:                    "Round robin",
	AlgBidirectionalRoundRobin:       "Bidirectional round robin",
	AlgUtilitarianMatching:           "Utilitarian matching",
}

// Title returns the human-readable algorithm name.
func (a Algorithm) Title() string {
	if t, ok := algorithmTitles[a]; ok {
		return t
	}
	return string(a)
}

// ParseAlgorithm accepts either the identifier or the display title.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == s || a.Title() == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}
