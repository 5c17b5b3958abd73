// Package vectors provides utilities for embedding vectors (e.g. L2 normalization).
package vectors

import (
	"math"
)

// NormalizeL2 takes a raw embedding vector and normalizes it to a length of 1.
// It modifies the slice in-place to save allocations during bulk catalog ingestion.
// Stored and query vectors are normalized the same way so cosine distance stays
// consistent regardless of provider-side scaling.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	// Avoid division by zero (though a valid embedding will never be all zeros)
	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}
