package embeddings

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// ToChromemFunc bridges an Embedder into the chromem-go EmbeddingFunc the
// vector index expects. chromem calls it once per stored chunk and once per
// query string; ingestion pre-embeds chunk batches through the Embedder
// directly, so this single-text path mostly serves queries (and, when a
// cache wraps the embedder, the per-chunk calls become cache hits).
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := e.Embed(ctx, []string{text})
		if err != nil || len(vectors) == 0 {
			return nil, err
		}
		return vectors[0], nil
	}
}
