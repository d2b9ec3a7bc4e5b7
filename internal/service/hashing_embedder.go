package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const defaultHashingDim = 768

// HashingEmbedder maps tokens into a fixed number of buckets with a signed
// hash and L2-normalises the result. It needs no model and is deterministic,
// which makes it the backend for offline runs and tests.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder returns an embedder producing dim-length vectors.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	return &HashingEmbedder{dim: dim}
}

// Embed hashes each whitespace-separated token into the vector.
func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	for _, tok := range strings.Fields(text) {
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		idx := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// Close is a no-op.
func (h *HashingEmbedder) Close() error { return nil }
