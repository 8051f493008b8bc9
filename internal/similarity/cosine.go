package similarity

import (
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. It is 0 when either vector has zero magnitude or the lengths
// differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push parallel vectors just past the bounds.
	return math.Max(-1, math.Min(1, sim))
}

// rank scores every candidate against query. Inputs are already checked to
// be finite, so scores are never NaN.
func rank(query []float32, candidates [][]float32) ([]Ranked, error) {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		if len(c) != len(query) {
			return nil, fmt.Errorf("%w: candidate %d has dimension %d, query has %d", ErrInvalidEmbedding, i, len(c), len(query))
		}
		ranked[i] = Ranked{Index: i, Score: CosineSimilarity(query, c)}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})
	return ranked, nil
}
