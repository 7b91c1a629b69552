package embedding_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitai-dev/gitai/internal/embedding"
)

func TestHashEmbedding_Deterministic(t *testing.T) {
	v1 := embedding.HashEmbedding("func doThing(x int) error", 64)
	v2 := embedding.HashEmbedding("func doThing(x int) error", 64)
	require.Equal(t, v1, v2)
	assert.Len(t, v1, 64)
}

func TestHashEmbedding_NormalizedUnlessZero(t *testing.T) {
	v := embedding.HashEmbedding("hello world this is a test", 32)
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)

	zero := embedding.HashEmbedding("", 32)
	for _, x := range zero {
		assert.Equal(t, 0.0, x)
	}
}

func TestHashEmbedding_DifferentTextsDiffer(t *testing.T) {
	v1 := embedding.HashEmbedding("alpha beta gamma", 64)
	v2 := embedding.HashEmbedding("delta epsilon zeta", 64)
	assert.NotEqual(t, v1, v2)
}

func TestQuantizeSQ8_RoundTripBound(t *testing.T) {
	vec := embedding.HashEmbedding("the quick brown fox jumps over the lazy dog", 48)
	q := embedding.QuantizeSQ8(vec)
	require.Equal(t, 48, q.Dim)
	deq := embedding.Dequantize(q.Q, q.Scale)

	maxAbs := 0.0
	for _, v := range vec {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	tolerance := float64(q.Scale) + 1e-6
	for i := range vec {
		assert.InDelta(t, vec[i], deq[i], tolerance)
	}
}

func TestQuantizeSQ8_AllZeroVector(t *testing.T) {
	vec := make([]float64, 16)
	q := embedding.QuantizeSQ8(vec)
	assert.Equal(t, float32(1.0), q.Scale)
	for _, v := range q.Q {
		assert.Equal(t, int8(0), v)
	}
}

func TestQuantizeSQ8_Deterministic(t *testing.T) {
	vec := embedding.HashEmbedding("determinism matters here", 32)
	q1 := embedding.QuantizeSQ8(vec)
	q2 := embedding.QuantizeSQ8(vec)
	assert.Equal(t, q1, q2)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{1, 0, 0}
	assert.InDelta(t, 1.0, embedding.CosineSimilarity(a, b), 1e-9)

	c := []float64{0, 1, 0}
	assert.InDelta(t, 0.0, embedding.CosineSimilarity(a, c), 1e-9)

	zero := []float64{0, 0, 0}
	assert.Equal(t, 0.0, embedding.CosineSimilarity(a, zero))
}
