package variant

import "math"

// Dedup returns the indices of the first occurrence of each resolved ID in
// ids. Unresolved IDs are skipped.
func Dedup(ids []Canonical) []int {
	seen := make(map[Canonical]bool, len(ids))
	keep := make([]int, 0, len(ids))
	for i, id := range ids {
		if !id.Resolved() || seen[id] {
			continue
		}
		seen[id] = true
		keep = append(keep, i)
	}
	return keep
}

// LeftJoin aligns values (keyed by ids) onto reference. The result has one
// entry per reference ID, in reference order; IDs without a match are NaN.
// When an ID repeats in ids, the first occurrence wins.
func LeftJoin(reference, ids []Canonical, values []float64) []float64 {
	index := make(map[Canonical]int, len(ids))
	for _, i := range Dedup(ids) {
		index[ids[i]] = i
	}

	out := make([]float64, len(reference))
	for j, ref := range reference {
		i, ok := index[ref]
		if !ok || !ref.Resolved() {
			out[j] = math.NaN()
			continue
		}
		out[j] = values[i]
	}
	return out
}
