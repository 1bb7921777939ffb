// Package vectormath holds the similarity and ranking helpers shared by the
// vector index implementations.
package vectormath

import (
	"math"
	"sort"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Zero vectors have similarity 0. a and b must have the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalise scales v to unit length in place and returns it.
func Normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Less orders hits by descending score, then ascending ordinal, then
// document id, then chunk id, so ranking is deterministic.
func Less(a, b domain.SearchHit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Ordinal != b.Ordinal {
		return a.Ordinal < b.Ordinal
	}
	if a.DocumentID != b.DocumentID {
		return a.DocumentID < b.DocumentID
	}
	return a.ChunkID < b.ChunkID
}

// TopK sorts hits with Less and truncates to k. k <= 0 returns nil.
func TopK(hits []domain.SearchHit, k int) []domain.SearchHit {
	if k <= 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return Less(hits[i], hits[j]) })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
