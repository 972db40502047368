// Package vector provides in-memory similarity indexes over chunk embeddings.
//
// Two strategies implement driven.VectorIndex:
//
//   - flat: exhaustive cosine comparison. Exact, and the reference for correctness.
//   - ivf: inverted-file index. Vectors are partitioned into k-means cells and a
//     query only ranks the members of the nearest cells. Probing every cell is
//     exact; probing fewer trades recall for speed.
//
// Both normalise vectors once at build time, so a query is a dot product.
// Indexes are immutable after Build and safe for concurrent queries.
package vector

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// normalise returns a unit-length copy of v. A zero vector stays zero.
func normalise(v []float64) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

// scoreScale is the resolution scores are rounded to. Cosines that differ
// only by accumulated rounding compare equal, so ties fall back to chunk ID
// on every platform.
const scoreScale = 1e12

// dot returns the cosine of two equal-length unit vectors, rounded to
// scoreScale and clamped to [-1, 1].
func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return max(-1, min(1, math.Round(s*scoreScale)/scoreScale))
}

// compareScored orders by descending score, then ascending chunk ID.
func compareScored(a, b domain.ScoredChunk) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// topK sorts candidates and truncates them to k.
func topK(candidates []domain.ScoredChunk, k int) domain.RetrievalResult {
	slices.SortFunc(candidates, compareScored)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return domain.RetrievalResult(candidates)
}

// entries is the validated, ID-ordered content shared by every index.
type entries struct {
	dim     int
	chunks  []domain.Chunk
	vectors [][]float64
}

// prepare validates embedded chunks and normalises their vectors.
func prepare(in []domain.EmbeddedChunk) (*entries, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("build index: %w: no chunks", domain.ErrEmptyInput)
	}

	dim := len(in[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("build index: %w: chunk %d has an empty vector", domain.ErrDimensionMismatch, in[0].ID)
	}

	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b domain.EmbeddedChunk) int {
		return cmp.Compare(a.ID, b.ID)
	})

	e := &entries{
		dim:     dim,
		chunks:  make([]domain.Chunk, len(sorted)),
		vectors: make([][]float64, len(sorted)),
	}
	for i, ec := range sorted {
		if len(ec.Vector) != dim {
			return nil, fmt.Errorf("build index: %w: chunk %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, ec.ID, len(ec.Vector), dim)
		}
		if i > 0 && sorted[i-1].ID == ec.ID {
			return nil, fmt.Errorf("build index: %w: duplicate chunk id %d", domain.ErrInvalidArgument, ec.ID)
		}
		e.chunks[i] = ec.Chunk
		e.vectors[i] = normalise(ec.Vector)
	}
	return e, nil
}

// checkQuery validates query arguments and returns the normalised vector.
func (e *entries) checkQuery(vector []float64, k int) ([]float64, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query index: %w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(vector) != e.dim {
		return nil, fmt.Errorf("query index: %w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), e.dim)
	}
	return normalise(vector), nil
}

// score ranks the entries at the given positions against q.
func (e *entries) score(q []float64, positions []int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(positions))
	for i, pos := range positions {
		out[i] = domain.ScoredChunk{Chunk: e.chunks[pos], Score: dot(q, e.vectors[pos])}
	}
	return out
}

// Len returns the number of indexed chunks.
func (e *entries) Len() int { return len(e.chunks) }

// Dimensions returns the vector length every query must match.
func (e *entries) Dimensions() int { return e.dim }

// Chunks returns a copy of the indexed chunks in ID order.
func (e *entries) Chunks() []domain.Chunk { return slices.Clone(e.chunks) }
