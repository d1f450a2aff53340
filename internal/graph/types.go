// Package graph builds and analyzes the weighted document graph: one node
// per note, edges scored from wikilinks, vector similarity and keyword
// overlap.
package graph

// Node represents a document in the knowledge graph.
type Node struct {
	DocID      string
	Title      string
	FilePath   string
	Tags       []string
	WordCount  int
	ChunkCount int
	Degree     int
	Centrality float64
	Community  *int
}

// Edge is an undirected, weighted relationship between two documents.
type Edge struct {
	SourceID         string
	TargetID         string
	Weight           float64
	WikilinkScore    float64
	VectorScore      float64
	KeywordScore     float64
	RelationshipType string // "wikilink", "similarity", "keyword", or "computed"
}

// DocumentGraph is the complete knowledge graph over a document set.
type DocumentGraph struct {
	Nodes map[string]*Node
	Edges []*Edge
}

// NewDocumentGraph returns an empty graph.
func NewDocumentGraph() *DocumentGraph {
	return &DocumentGraph{Nodes: make(map[string]*Node)}
}

// TotalNodes returns the node count.
func (dg *DocumentGraph) TotalNodes() int { return len(dg.Nodes) }

// TotalEdges returns the edge count.
func (dg *DocumentGraph) TotalEdges() int { return len(dg.Edges) }

// AddNode registers a node, replacing any existing node with the same id.
func (dg *DocumentGraph) AddNode(n *Node) { dg.Nodes[n.DocID] = n }

// AddEdge appends an edge and updates both endpoints' degree.
func (dg *DocumentGraph) AddEdge(e *Edge) {
	dg.Edges = append(dg.Edges, e)
	if n, ok := dg.Nodes[e.SourceID]; ok {
		n.Degree++
	}
	if n, ok := dg.Nodes[e.TargetID]; ok {
		n.Degree++
	}
}

// EdgesForNode returns every edge touching docID.
func (dg *DocumentGraph) EdgesForNode(docID string) []*Edge {
	var out []*Edge
	for _, e := range dg.Edges {
		if e.SourceID == docID || e.TargetID == docID {
			out = append(out, e)
		}
	}
	return out
}
