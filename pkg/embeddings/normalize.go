// Package embeddings holds vector math shared by embedding providers.
package embeddings

import "math"

// NormalizeL2 scales vector in place to unit length. Gemini embeddings are not
// unit-length at truncated dimensions, and cosine ranking assumes they are.
// A zero vector is left untouched.
func NormalizeL2(vector []float32) {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	inv := 1 / math.Sqrt(sumSquares)
	for i, v := range vector {
		vector[i] = float32(float64(v) * inv)
	}
}
