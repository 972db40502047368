package vector

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func embedded(id int, v ...float64) domain.EmbeddedChunk {
	return domain.EmbeddedChunk{
		Chunk:  domain.Chunk{ID: id, Text: string(rune('a' + id))},
		Vector: v,
	}
}

func randomChunks(rng *rand.Rand, n, dim int) []domain.EmbeddedChunk {
	out := make([]domain.EmbeddedChunk, n)
	for i := range out {
		v := make([]float64, dim)
		for d := range v {
			v[d] = rng.NormFloat64()
		}
		out[i] = domain.EmbeddedChunk{Chunk: domain.Chunk{ID: i}, Vector: v}
	}
	return out
}

// builders returns one builder per strategy, with ivf probing every cell.
func builders() map[string]func([]domain.EmbeddedChunk) (driven.VectorIndex, error) {
	return map[string]func([]domain.EmbeddedChunk) (driven.VectorIndex, error){
		"flat": func(c []domain.EmbeddedChunk) (driven.VectorIndex, error) {
			idx, err := BuildFlat(c)
			if err != nil {
				return nil, err
			}
			return idx, nil
		},
		"ivf exhaustive": func(c []domain.EmbeddedChunk) (driven.VectorIndex, error) {
			idx, err := BuildIVF(c, 4, 4)
			if err != nil {
				return nil, err
			}
			return idx, nil
		},
	}
}

func TestBuild_Errors(t *testing.T) {
	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			_, err := build(nil)
			assert.ErrorIs(t, err, domain.ErrEmptyInput)

			_, err = build([]domain.EmbeddedChunk{embedded(0, 1, 0), embedded(1, 1, 0, 0)})
			assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

			_, err = build([]domain.EmbeddedChunk{embedded(0)})
			assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

			_, err = build([]domain.EmbeddedChunk{embedded(3, 1, 0), embedded(3, 0, 1)})
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			idx, err := build([]domain.EmbeddedChunk{embedded(0, 1, 0), embedded(1, 0, 1)})
			require.NoError(t, err)

			_, err = idx.Query([]float64{1, 0}, 0)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)

			_, err = idx.Query([]float64{1, 0}, -2)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)

			_, err = idx.Query([]float64{1, 0, 0}, 1)
			assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		})
	}
}

func TestQuery_AllChunksSortedWithTieBreak(t *testing.T) {
	chunks := []domain.EmbeddedChunk{
		embedded(4, 0, 1),
		embedded(2, 1, 0),
		embedded(0, 0, 1),
		embedded(3, 2, 0), // same direction as 2: tie on score
		embedded(1, -1, 0),
	}

	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			idx, err := build(chunks)
			require.NoError(t, err)

			res, err := idx.Query([]float64{1, 0}, 10)
			require.NoError(t, err)

			require.Len(t, res, len(chunks))
			assert.Equal(t, []int{2, 3, 0, 4, 1}, res.ChunkIDs())
			for i := 1; i < len(res); i++ {
				assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
			}
			assert.InDelta(t, -1.0, res[4].Score, 1e-12)
		})
	}
}

func TestQuery_SelfSimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	chunks := randomChunks(rng, 50, 16)

	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			idx, err := build(chunks)
			require.NoError(t, err)

			for _, c := range chunks {
				res, err := idx.Query(c.Vector, 1)
				require.NoError(t, err)
				require.Len(t, res, 1)
				assert.Equal(t, c.ID, res[0].ID)
				assert.Equal(t, 1.0, res[0].Score)
			}
		})
	}
}

func TestQuery_ScaledDuplicatesTieOnID(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			for range 200 {
				v := make([]float64, 12)
				scaled := make([]float64, len(v))
				for d := range v {
					v[d] = rng.NormFloat64()
					scaled[d] = 3 * v[d]
				}

				idx, err := build([]domain.EmbeddedChunk{embedded(0, scaled...), embedded(1, v...)})
				require.NoError(t, err)

				res, err := idx.Query(v, 2)
				require.NoError(t, err)
				require.Equal(t, []int{0, 1}, res.ChunkIDs())
				assert.Equal(t, 1.0, res[0].Score)
				assert.Equal(t, res[0].Score, res[1].Score)
			}
		})
	}
}

func TestQuery_LimitsToK(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	idx, err := BuildFlat(randomChunks(rng, 20, 8))
	require.NoError(t, err)

	res, err := idx.Query(randomChunks(rng, 1, 8)[0].Vector, 5)
	require.NoError(t, err)
	assert.Len(t, res, 5)
}

func TestQuery_ZeroVectors(t *testing.T) {
	idx, err := BuildFlat([]domain.EmbeddedChunk{embedded(1, 0, 0), embedded(0, 0, 0)})
	require.NoError(t, err)

	res, err := idx.Query([]float64{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.ChunkIDs())
	assert.Zero(t, res[0].Score)

	res, err = idx.Query([]float64{0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestIndex_Accessors(t *testing.T) {
	idx, err := BuildFlat([]domain.EmbeddedChunk{embedded(1, 1, 2, 3), embedded(0, 3, 2, 1)})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 3, idx.Dimensions())
	assert.Equal(t, "flat", idx.Strategy())
	chunks := idx.Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ID)

	// Mutating the returned slice must not affect the index.
	chunks[0].Text = "changed"
	assert.NotEqual(t, "changed", idx.Chunks()[0].Text)
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	in := []domain.EmbeddedChunk{embedded(0, 1, 0), embedded(1, 0, 1)}
	idx, err := BuildFlat(in)
	require.NoError(t, err)

	in[0].Vector[0] = -1
	res, err := idx.Query([]float64{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res[0].ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-12)
}

func TestIVF_MatchesFlatWhenExhaustive(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	chunks := randomChunks(rng, 200, 12)

	flat, err := BuildFlat(chunks)
	require.NoError(t, err)
	ivf, err := BuildIVF(chunks, 8, 8)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		q := randomChunks(rng, 1, 12)[0].Vector
		want, err := flat.Query(q, 10)
		require.NoError(t, err)
		got, err := ivf.Query(q, 10)
		require.NoError(t, err)
		assert.Equal(t, want.ChunkIDs(), got.ChunkIDs())
	}
}

func TestIVF_PartialProbesRankWithinCells(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	chunks := randomChunks(rng, 120, 6)

	ivf, err := BuildIVF(chunks, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, ivf.Lists())
	assert.Equal(t, 2, ivf.Probes())
	assert.Equal(t, "ivf", ivf.Strategy())

	q := chunks[17].Vector
	res, err := ivf.Query(q, 5)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, 17, res[0].ID, "a stored vector lives in its own nearest cell")
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestIVF_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	chunks := randomChunks(rng, 80, 5)
	q := randomChunks(rng, 1, 5)[0].Vector

	a, err := BuildIVF(chunks, 6, 2)
	require.NoError(t, err)
	b, err := BuildIVF(chunks, 6, 2)
	require.NoError(t, err)

	ra, err := a.Query(q, 8)
	require.NoError(t, err)
	rb, err := b.Query(q, 8)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestIVF_ListsCappedByChunkCount(t *testing.T) {
	ivf, err := BuildIVF([]domain.EmbeddedChunk{embedded(0, 1, 0), embedded(1, 0, 1)}, 16, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, ivf.Lists())
	assert.Equal(t, 2, ivf.Probes())

	_, err = BuildIVF([]domain.EmbeddedChunk{embedded(0, 1, 0)}, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQuery_Concurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	chunks := randomChunks(rng, 64, 8)
	idx, err := BuildIVF(chunks, 4, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := idx.Query(chunks[i].Vector, 3)
			assert.NoError(t, err)
			assert.Equal(t, i, res[0].ID)
		}(i)
	}
	wg.Wait()
}

func TestNewBuilder(t *testing.T) {
	b, err := NewBuilder(domain.RetrievalSettings{})
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStrategyFlat, b.Strategy())

	b, err = NewBuilder(domain.RetrievalSettings{Index: domain.IndexStrategyIVF, IVFLists: 2, IVFProbes: 1})
	require.NoError(t, err)
	idx, err := b.Build([]domain.EmbeddedChunk{embedded(0, 1, 0), embedded(1, 0, 1), embedded(2, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, "ivf", idx.Strategy())

	_, err = b.Build(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = NewBuilder(domain.RetrievalSettings{Index: "hnsw"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
