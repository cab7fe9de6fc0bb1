package embeddings

import (
	"math"
	"testing"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}

func TestNormalizeL2(t *testing.T) {
	const tol = 1e-5

	t.Run("scales to unit length in place", func(t *testing.T) {
		v := []float32{3, 4}
		NormalizeL2(v)

		if math.Abs(float64(v[0])-0.6) > tol || math.Abs(float64(v[1])-0.8) > tol {
			t.Errorf("expected (0.6, 0.8), got (%f, %f)", v[0], v[1])
		}
	})

	t.Run("already-normalized vector keeps magnitude 1", func(t *testing.T) {
		v := []float32{0, 1, 0}
		NormalizeL2(v)

		if math.Abs(magnitude(v)-1) > tol {
			t.Errorf("magnitude = %f", magnitude(v))
		}
	})

	t.Run("negative components normalize too", func(t *testing.T) {
		v := []float32{-2, 0, 2}
		NormalizeL2(v)

		if math.Abs(magnitude(v)-1) > tol {
			t.Errorf("magnitude = %f", magnitude(v))
		}

		if v[0] >= 0 {
			t.Errorf("sign lost: %v", v)
		}
	})

	t.Run("zero vector is left untouched", func(t *testing.T) {
		v := []float32{0, 0, 0}
		NormalizeL2(v)

		for i, x := range v {
			if x != 0 {
				t.Errorf("v[%d] = %f", i, x)
			}
		}
	})
}
