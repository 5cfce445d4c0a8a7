package semantic

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroVector is returned when a vector has zero norm; cosine similarity
// is undefined for it and must never be computed by dividing by zero.
var ErrZeroVector = errors.New("zero-norm vector")

// Cosine returns the cosine similarity of two equal-length vectors, in
// [-1, 1]. For unit-normalized embeddings this equals the dot product.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
