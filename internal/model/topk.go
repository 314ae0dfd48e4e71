package model

import "sort"

// TopK returns the k highest-probability predictions in descending order.
// k is clamped to [1, len(probs)]: zero or negative asks for the single best
// result, anything above the label count returns the full distribution.
// Equal probabilities order by ascending label index, so the output is
// deterministic.
func TopK(probs []float64, k int, labels *LabelMap) []Prediction {
	n := len(probs)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if probs[idx[a]] != probs[idx[b]] {
			return probs[idx[a]] > probs[idx[b]]
		}
		return idx[a] < idx[b]
	})

	out := make([]Prediction, k)
	for i := 0; i < k; i++ {
		out[i] = Prediction{
			Index: idx[i],
			Style: labels.Name(idx[i]),
			Prob:  probs[idx[i]],
		}
	}
	return out
}
