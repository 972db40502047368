package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// embeddingCache implements driven.EmbeddingCache.
type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns the vector stored under key.
func (c *embeddingCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	var (
		dims int
		blob []byte
	)
	err := c.store.db.QueryRowContext(ctx,
		`SELECT dimensions, vector FROM embedding_cache WHERE key = ?`, key,
	).Scan(&dims, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying embedding cache: %w", err)
	}

	vector, err := bytesToFloat64Slice(blob)
	if err != nil {
		return nil, false, err
	}
	if len(vector) != dims {
		return nil, false, fmt.Errorf("cached vector %s has %d values, want %d", key, len(vector), dims)
	}
	return vector, true, nil
}

// Put stores vector under key, replacing any previous value.
func (c *embeddingCache) Put(ctx context.Context, key string, vector []float64) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (key, dimensions, vector)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			created_at = CURRENT_TIMESTAMP
	`, key, len(vector), float64SliceToBytes(vector))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// float64SliceToBytes converts a []float64 to a little-endian byte slice for storage.
func float64SliceToBytes(floats []float64) []byte {
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloat64Slice converts a stored byte slice back to []float64.
func bytesToFloat64Slice(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("corrupt vector blob of %d bytes", len(data))
	}
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats, nil
}
