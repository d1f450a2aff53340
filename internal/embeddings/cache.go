package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// cacheBackend is the subset of cachestore.Store this package depends on,
// kept narrow so embeddings doesn't need to import cachestore's sqlite
// driver in tests.
type cacheBackend interface {
	GetEmbedding(cacheKey string) ([]byte, bool)
	PutEmbedding(cacheKey, modelName string, data []byte)
}

// CachedEmbedder wraps an Embedder with a best-effort cache: a cache hit
// skips the call entirely, a miss recomputes and writes through, and any
// cache write failure is swallowed by the backend rather than surfaced here.
type CachedEmbedder struct {
	inner Embedder
	cache cacheBackend
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner Embedder, cache cacheBackend) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) Name() string    { return c.inner.Name() }
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// Embed serves each text from cache when available and batches the rest
// through inner, preserving input order in the result.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := cacheKey(c.inner.Name(), t)
		if data, ok := c.cache.GetEmbedding(key); ok {
			if v, ok := decodeVector(data); ok {
				results[i] = v
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	computed, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range missIdx {
		results[idx] = computed[j]
		key := cacheKey(c.inner.Name(), texts[idx])
		c.cache.PutEmbedding(key, c.inner.Name(), encodeVector(computed[j]))
	}
	return results, nil
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + ":" + text))
	return hex.EncodeToString(sum[:])
}

func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(data []byte) ([]float32, bool) {
	if len(data)%4 != 0 {
		return nil, false
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out, true
}
