// Package ranking scores document chunks against a query in embedding
// space and selects the best-matching context.
package ranking

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateVector reports a zero-magnitude embedding, for which
// cosine similarity is undefined.
var ErrDegenerateVector = errors.New("zero-magnitude embedding vector")

// Cosine computes the cosine similarity dot(a,b) / (|a|*|b|) of two
// vectors of equal length. Either vector having zero magnitude yields
// ErrDegenerateVector instead of a silent NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0, ErrDegenerateVector
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
