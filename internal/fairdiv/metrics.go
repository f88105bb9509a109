package fairdiv

import "sort"

// bundleValue is agent i's value for its best limit items of bundle.
func (p *problem) bundleValue(i int, bundle []int, limit int) int {
	vals := make([]int, len(bundle))
	for k, j := range bundle {
		vals[k] = p.val[i][j]
	}
	if limit < len(vals) {
		sort.Sort(sort.Reverse(sort.IntSlice(vals)))
		vals = vals[:limit]
	}
	total := 0
	for _, v := range vals {
		total += v
	}
	return total
}
