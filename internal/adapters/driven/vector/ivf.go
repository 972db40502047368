package vector

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure IVFIndex implements the interface.
var _ driven.VectorIndex = (*IVFIndex)(nil)

// kmeansIterations is the fixed number of refinement passes.
// A fixed count keeps builds deterministic.
const kmeansIterations = 10

// IVFIndex partitions vectors into cells around k-means centroids.
// A query ranks exactly the members of the probes nearest cells.
type IVFIndex struct {
	*entries
	centroids [][]float64
	cells     [][]int
	probes    int
}

// BuildIVF builds an inverted-file index with up to lists cells,
// searching probes cells per query.
func BuildIVF(chunks []domain.EmbeddedChunk, lists, probes int) (*IVFIndex, error) {
	if lists <= 0 || probes <= 0 {
		return nil, fmt.Errorf("build index: %w: ivf lists and probes must be positive, got %d/%d",
			domain.ErrInvalidArgument, lists, probes)
	}

	e, err := prepare(chunks)
	if err != nil {
		return nil, err
	}

	lists = min(lists, len(e.vectors))
	centroids, cells := kmeans(e.vectors, lists)

	return &IVFIndex{
		entries:   e,
		centroids: centroids,
		cells:     cells,
		probes:    min(probes, lists),
	}, nil
}

// Query returns the k most similar chunks among the probed cells.
func (ix *IVFIndex) Query(vector []float64, k int) (domain.RetrievalResult, error) {
	q, err := ix.checkQuery(vector, k)
	if err != nil {
		return nil, err
	}

	var candidates []int
	for _, cell := range ix.nearestCells(q) {
		candidates = append(candidates, ix.cells[cell]...)
	}
	return topK(ix.score(q, candidates), k), nil
}

// Strategy returns "ivf".
func (ix *IVFIndex) Strategy() string {
	return string(domain.IndexStrategyIVF)
}

// Lists returns the number of cells.
func (ix *IVFIndex) Lists() int { return len(ix.centroids) }

// Probes returns the number of cells searched per query.
func (ix *IVFIndex) Probes() int { return ix.probes }

// nearestCells returns the indices of the probes cells closest to q.
// Ties go to the lower cell index.
func (ix *IVFIndex) nearestCells(q []float64) []int {
	type cellScore struct {
		cell  int
		score float64
	}
	scores := make([]cellScore, len(ix.centroids))
	for i, c := range ix.centroids {
		scores[i] = cellScore{cell: i, score: dot(q, c)}
	}
	slices.SortFunc(scores, func(a, b cellScore) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.cell, b.cell)
	})

	out := make([]int, ix.probes)
	for i := range out {
		out[i] = scores[i].cell
	}
	return out
}

// kmeans clusters unit vectors into n cells with spherical k-means.
// Centroids are seeded from the first n vectors; an emptied cell keeps
// its previous centroid.
func kmeans(vectors [][]float64, n int) ([][]float64, [][]int) {
	dim := len(vectors[0])
	centroids := make([][]float64, n)
	for i := range centroids {
		centroids[i] = slices.Clone(vectors[i])
	}

	assign := make([]int, len(vectors))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(centroids, v)
			if iter == 0 || best != assign[i] {
				changed = true
			}
			assign[i] = best
		}
		if !changed {
			break
		}

		sums := make([][]float64, n)
		counts := make([]int, n)
		for i, v := range vectors {
			c := assign[i]
			if sums[c] == nil {
				sums[c] = make([]float64, dim)
			}
			for d, x := range v {
				sums[c][d] += x
			}
			counts[c]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				centroids[c] = normalise(sums[c])
			}
		}
	}

	cells := make([][]int, n)
	for i := range vectors {
		c := nearestCentroid(centroids, vectors[i])
		cells[c] = append(cells[c], i)
	}
	return centroids, cells
}

// nearestCentroid returns the index of the centroid with the highest dot
// product with v, preferring the lower index on ties.
func nearestCentroid(centroids [][]float64, v []float64) int {
	best, bestScore := 0, dot(v, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if s := dot(v, centroids[c]); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
