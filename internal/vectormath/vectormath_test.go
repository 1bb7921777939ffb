package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalise(t *testing.T) {
	v := Normalise([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := Normalise([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestTopK_OrdersByScoreThenOrdinal(t *testing.T) {
	hits := []domain.SearchHit{
		{ChunkID: "b#2", DocumentID: "b", Ordinal: 2, Score: 0.5},
		{ChunkID: "a#0", DocumentID: "a", Ordinal: 0, Score: 0.9},
		{ChunkID: "b#1", DocumentID: "b", Ordinal: 1, Score: 0.5},
		{ChunkID: "a#3", DocumentID: "a", Ordinal: 3, Score: 0.1},
	}

	got := TopK(hits, 3)

	assert.Len(t, got, 3)
	assert.Equal(t, "a#0", got[0].ChunkID)
	assert.Equal(t, "b#1", got[1].ChunkID)
	assert.Equal(t, "b#2", got[2].ChunkID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestTopK_NonPositiveK(t *testing.T) {
	assert.Nil(t, TopK([]domain.SearchHit{{Score: 1}}, 0))
}
