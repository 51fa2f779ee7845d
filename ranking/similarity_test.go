package ranking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineSelfSimilarity(t *testing.T) {
	vec := []float32{0.3, -1.2, 4.5}
	score, err := Cosine(vec, vec)
	require.NoError(t, err)
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestCosineSymmetry(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 1}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)
	require.Equal(t, ab, ba)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	score, err := Cosine([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	require.InDelta(t, 0.0, score, 1e-9)
}

func TestCosineOppositeVectors(t *testing.T) {
	score, err := Cosine([]float32{2, 0}, []float32{-1, 0})
	require.NoError(t, err)
	require.InDelta(t, -1.0, score, 1e-9)
}

func TestCosineZeroVector(t *testing.T) {
	_, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.ErrorIs(t, err, ErrDegenerateVector)

	_, err = Cosine([]float32{1, 2, 3}, []float32{0, 0, 0})
	require.ErrorIs(t, err, ErrDegenerateVector)
}

func TestCosineLengthMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDegenerateVector)
}
