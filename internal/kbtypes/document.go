// Package kbtypes defines the shared data model for documents, chunks,
// relationships and the document graph that flow between every stage of
// the knowledge-base pipeline (vault scanning, parsing, chunking, indexing,
// graph construction and retrieval).
package kbtypes

import "time"

// DocumentStatus tracks a document's lifecycle within the knowledge base.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusActive  DocumentStatus = "active"
	StatusFrozen  DocumentStatus = "frozen" // source folder missing, document retained
	StatusError   DocumentStatus = "error"
)

// RelationshipKind identifies how two documents came to be linked.
type RelationshipKind string

const (
	RelWikilink       RelationshipKind = "wikilink"
	RelWikilinkHeader RelationshipKind = "wikilink_header"
	RelSimilarity     RelationshipKind = "similarity"
	RelKeyword        RelationshipKind = "keyword"
)

// Heading is a single ATX heading extracted from a note.
type Heading struct {
	Level int
	Text  string
}

// Metadata holds frontmatter-derived and content-derived facts about a document.
type Metadata struct {
	Title        string
	Tags         []string
	Aliases      []string
	Headings     []Heading
	WordCount    int
	Custom       map[string]any
	CreatedDate  *time.Time
	ModifiedDate *time.Time
}

// Chunk is a token-budgeted slice of a document's plain-text projection,
// ready for embedding and vector-index storage.
type Chunk struct {
	ChunkID    string // "{doc_id}_{index}"
	DocumentID string
	Index      int
	Content    string
	StartLine  int
	EndLine    int
	Metadata   map[string]string
	Embedding  []float32
}

// Relationship is a directed edge recorded on the source document, scored
// by the three signals the graph builder combines: manual wikilinks,
// vector similarity and keyword overlap.
type Relationship struct {
	SourceDocID     string
	TargetDocID     string
	Kind            RelationshipKind
	KeywordScore    float64
	VectorScore     float64
	ManualLinkScore float64
	Strength        float64
	Metadata        map[string]string
}

// CalculateStrength derives Strength from the component scores. An explicit
// link the author wrote is authoritative: any relationship carrying a full
// manual-link signal scores 1.0 outright. Derived relationships blend their
// signals with the weighting keyword=0.3, vector=0.5, manual_link=0.2.
func (r *Relationship) CalculateStrength() {
	if r.ManualLinkScore >= 1.0 {
		r.Strength = 1.0
		return
	}
	r.Strength = r.KeywordScore*0.3 + r.VectorScore*0.5 + r.ManualLinkScore*0.2
}

// Document is a single note in the knowledge base, together with its
// derived chunks and relationships to other documents.
type Document struct {
	DocID        string
	SourceFolder string
	RelativePath string
	FilePath     string

	RawContent    string
	ParsedContent string // after Obsidian-syntax degradation
	PlainText     string

	Metadata      Metadata
	Chunks        []Chunk
	Relationships []Relationship

	Status      DocumentStatus
	FileSize    int64
	FileHash    string
	LastIndexed time.Time
}

// KnowledgeBase aggregates summary statistics over the full document set.
type KnowledgeBase struct {
	KBID               string
	Name               string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	SourceFolders      []string
	TotalDocuments     int
	TotalChunks        int
	TotalRelationships int
	IndexVersion       string
	VectorDim          int
}
