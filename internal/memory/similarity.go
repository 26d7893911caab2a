package memory

import "math"

// contextSimilarity compares two anchor-context snapshots: the mean, over
// dimensions present in both, of 1 - |a-b|. Dimensions are assumed to be
// [0,1] valued. Returns 0 when the contexts share no dimensions.
func contextSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sum float64
	var shared int
	for dim, av := range a {
		bv, ok := b[dim]
		if !ok {
			continue
		}
		sum += 1.0 - math.Abs(av-bv)
		shared++
	}
	if shared == 0 {
		return 0
	}
	return sum / float64(shared)
}
