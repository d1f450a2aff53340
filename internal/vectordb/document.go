package vectordb

// Document is a single embedded chunk ready for vector storage, keyed by
// chunk id with its parent document id carried in metadata so a whole
// document's chunks can be deleted or refetched together.
type Document struct {
	ID       string // chunk id, "{doc_id}_{index}"
	Content  string
	Metadata Metadata
}

// Metadata holds the note-derived fields every chunk carries alongside its
// embedding.
type Metadata struct {
	DocID        string
	SourceFolder string
	RelativePath string
	ChunkIndex   int
	StartLine    int
	EndLine      int
	Title        string
	Tags         string // comma-joined; chromem-go metadata values are flat strings
}

// SearchResult pairs a stored chunk with its retrieval score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows a search by metadata fields.
type SearchFilter struct {
	DocID        *string
	SourceFolder *string
}
