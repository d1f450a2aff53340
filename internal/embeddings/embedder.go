// Package embeddings is the embedding port of the knowledge base: it turns
// note chunks (and query strings) into fixed-dimension vectors for the
// vector index. Backends are OpenAI, Google, Ollama and a deterministic
// hash-derived mock; any of them can be wrapped in a best-effort disk cache.
package embeddings

import "context"

// Embedder maps texts to fixed-dimension vectors. Ingestion calls it with a
// whole document's chunks at once, so implementations should batch where
// their API allows rather than looping one request per chunk.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the width of the vectors this embedder produces.
	// The vector index and the graph builder's cosine math rely on every
	// chunk in a knowledge base sharing this dimension.
	Dimensions() int

	// Name identifies the backing model. It feeds the embedding cache key,
	// so switching models never serves another model's cached vectors.
	Name() string
}
