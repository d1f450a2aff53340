package vectordb

import "context"

// VectorStore stores document chunks by embedding and serves similarity
// search over them.
type VectorStore interface {
	// AddChunks adds or updates chunks in the store.
	AddChunks(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// GetByDocID retrieves every stored chunk belonging to a document.
	GetByDocID(ctx context.Context, docID string) ([]Document, error)

	// DeleteByDocID removes every stored chunk belonging to a document.
	DeleteByDocID(ctx context.Context, docID string) error

	// DeleteBySourceFolder removes every stored chunk under a source folder.
	DeleteBySourceFolder(ctx context.Context, sourceFolder string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of chunks in the store.
	Count() int
}
