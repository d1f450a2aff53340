package graph

import (
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/arjun-iyer/noteforge/internal/kbtypes"
)

// BuilderConfig tunes edge construction and pruning.
type BuilderConfig struct {
	MinEdgeWeight    float64 // edges below this threshold are dropped entirely
	MaxEdgesPerNode  int     // 0 disables pruning
	KeywordMinLength int     // minimum keyword length considered for Jaccard overlap
}

// DefaultBuilderConfig mirrors the defaults used throughout the knowledge-base spec.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		MinEdgeWeight:    0.1,
		MaxEdgesPerNode:  20,
		KeywordMinLength: 3,
	}
}

// Builder constructs a DocumentGraph from a document set. Weights combine
// three signals: 20% explicit wikilinks, 50% embedding cosine similarity,
// 30% keyword (tag/title) Jaccard overlap.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder returns a Builder using the given configuration.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build constructs the complete graph. embeddings optionally maps doc_id to
// a representative vector (e.g. the mean of a document's chunk embeddings);
// when nil, edges carry no vector-similarity contribution.
func (b *Builder) Build(docs []kbtypes.Document, embeddings map[string][]float32) *DocumentGraph {
	g := NewDocumentGraph()

	for i := range docs {
		doc := &docs[i]
		title := doc.Metadata.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(doc.RelativePath), filepath.Ext(doc.RelativePath))
		}
		g.AddNode(&Node{
			DocID:      doc.DocID,
			Title:      title,
			FilePath:   doc.RelativePath,
			Tags:       doc.Metadata.Tags,
			WordCount:  doc.Metadata.WordCount,
			ChunkCount: len(doc.Chunks),
		})
	}

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			edge := b.buildEdge(&docs[i], &docs[j], embeddings)
			if edge != nil && edge.Weight >= b.cfg.MinEdgeWeight {
				g.AddEdge(edge)
			}
		}
	}

	b.pruneEdges(g)
	return g
}

func (b *Builder) buildEdge(doc1, doc2 *kbtypes.Document, embeddings map[string][]float32) *Edge {
	edge := &Edge{SourceID: doc1.DocID, TargetID: doc2.DocID}

	edge.WikilinkScore = wikilinkScore(doc1, doc2)
	if embeddings != nil {
		edge.VectorScore = vectorScore(doc1.DocID, doc2.DocID, embeddings)
	}
	edge.KeywordScore = keywordScore(doc1, doc2, b.cfg.KeywordMinLength)

	edge.Weight = edge.WikilinkScore*0.2 + edge.VectorScore*0.5 + edge.KeywordScore*0.3

	switch {
	case edge.WikilinkScore > 0:
		edge.RelationshipType = "wikilink"
	case edge.VectorScore > edge.KeywordScore:
		edge.RelationshipType = "similarity"
	case edge.KeywordScore > 0:
		edge.RelationshipType = "keyword"
	default:
		edge.RelationshipType = "computed"
	}

	if edge.Weight <= 0 {
		return nil
	}
	return edge
}

// wikilinkScore returns 1.0 when either document carries a relationship of
// kind "wikilink" or "wikilink_header" targeting the other, else 0. It
// looks at the relationship kind only; ManualLinkScore is not read.
func wikilinkScore(doc1, doc2 *kbtypes.Document) float64 {
	isWikilink := func(rel kbtypes.Relationship) bool {
		return rel.Kind == kbtypes.RelWikilink || rel.Kind == kbtypes.RelWikilinkHeader
	}
	for _, rel := range doc1.Relationships {
		if rel.TargetDocID == doc2.DocID && isWikilink(rel) {
			return 1.0
		}
	}
	for _, rel := range doc2.Relationships {
		if rel.TargetDocID == doc1.DocID && isWikilink(rel) {
			return 1.0
		}
	}
	return 0.0
}

func vectorScore(id1, id2 string, embeddings map[string][]float32) float64 {
	v1, ok1 := embeddings[id1]
	v2, ok2 := embeddings[id2]
	if !ok1 || !ok2 {
		return 0.0
	}
	return cosineToUnit(v1, v2)
}

// cosineToUnit computes cosine similarity and rescales from [-1,1] to
// [0,1], clamped.
func cosineToUnit(a, b []float32) float64 {
	var dot, magA, magB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	unit := (sim + 1) / 2
	if unit < 0 {
		return 0
	}
	if unit > 1 {
		return 1
	}
	return unit
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func keywordScore(doc1, doc2 *kbtypes.Document, minLen int) float64 {
	k1 := extractKeywords(doc1, minLen)
	k2 := extractKeywords(doc2, minLen)
	if len(k1) == 0 || len(k2) == 0 {
		return 0
	}

	intersection := 0
	for k := range k1 {
		if k2[k] {
			intersection++
		}
	}
	union := len(k1) + len(k2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// extractKeywords mirrors the original extraction: each tag is split on '/'
// (no prefix expansion) and title words are tokenized, both lowercased and
// filtered by minLen.
func extractKeywords(doc *kbtypes.Document, minLen int) map[string]bool {
	keywords := make(map[string]bool)

	for _, tag := range doc.Metadata.Tags {
		for _, part := range strings.Split(tag, "/") {
			if len([]rune(part)) >= minLen {
				keywords[strings.ToLower(part)] = true
			}
		}
	}

	title := doc.Metadata.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(doc.RelativePath), filepath.Ext(doc.RelativePath))
	}
	for _, word := range wordPattern.FindAllString(strings.ToLower(title), -1) {
		if len([]rune(word)) >= minLen {
			keywords[word] = true
		}
	}

	return keywords
}

// pruneEdges keeps, for each node, its top MaxEdgesPerNode highest-weight
// edges, unioned across both endpoints' preferences (an edge survives if
// either endpoint voted for it).
func (b *Builder) pruneEdges(g *DocumentGraph) {
	if b.cfg.MaxEdgesPerNode <= 0 {
		return
	}

	nodeEdges := make(map[string][]*Edge)
	for _, e := range g.Edges {
		nodeEdges[e.SourceID] = append(nodeEdges[e.SourceID], e)
		nodeEdges[e.TargetID] = append(nodeEdges[e.TargetID], e)
	}

	keep := make(map[*Edge]bool)
	for _, edges := range nodeEdges {
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
		limit := b.cfg.MaxEdgesPerNode
		if limit > len(edges) {
			limit = len(edges)
		}
		for _, e := range edges[:limit] {
			keep[e] = true
		}
	}

	filtered := g.Edges[:0]
	for _, e := range g.Edges {
		if keep[e] {
			filtered = append(filtered, e)
		}
	}
	g.Edges = filtered

	for _, n := range g.Nodes {
		n.Degree = 0
	}
	for _, e := range g.Edges {
		if n, ok := g.Nodes[e.SourceID]; ok {
			n.Degree++
		}
		if n, ok := g.Nodes[e.TargetID]; ok {
			n.Degree++
		}
	}
}
