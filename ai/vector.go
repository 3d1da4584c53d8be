package ai

import "math"

// CosineSimilarity returns dot(a,b)/(|a|*|b|). It is symmetric and lands in
// [-1,1] for non-degenerate inputs.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
