// Package fairdiv is the built-in allocation collaborator. It divides course
// seats among students with one of six algorithms and scores the result.
//
// The algorithms offered are:
//
//   - Iterated maximum matching (unadjusted): repeated rounds of a
//     maximum-weight matching between agents with remaining capacity and
//     items with remaining capacity; each agent gains at most one item per
//     round.
//
//   - Iterated maximum matching (adjusted): as above, and an agent that did
//     not receive its best available item in a round has the difference added
//     to its next-best remaining item.
//
//   - Serial dictatorship: agents in order take their best bundle from what
//     is left.
//
//   - Round robin: agents in order pick one item each, round after round.
//
//   - Bidirectional round robin: round robin with the order reversed after
//     every round.
//
//   - Utilitarian matching: the allocation maximizing the sum of values.
//
// Every allocation respects agent capacities, item capacities and gives an
// agent at most one seat in a course. The two matching algorithms are solved
// with a min-cost flow over agent → item edges of capacity one.
//
// The flow only augments along paths of strictly negative cost, so the
// matching algorithms never assign an item whose current weight for the agent
// is 0; such seats stay unfilled. Round robin and serial dictatorship may hand
// them out when nothing better is left. Zero-valued cells only occur in
// uploaded or edited preference tables.
//
// Metrics follows the usual definitions: utilitarian value is the sum of
// bundle values, egalitarian value the smallest, and the envy of i toward j
// is how much more i values the best cap(i) items of j's bundle than its own.
package fairdiv
