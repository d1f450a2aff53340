// Package graphexport renders a DocumentGraph into the view formats
// consumers need: force-graph JSON for interactive clients, a node/edge
// diagram DSL, a center+expand host view, and a GraphML document for
// external graph tools. Every transform here is a pure read of
// internal/graph's types; none of them mutate the graph.
package graphexport

import (
	"encoding/json"

	"github.com/arjun-iyer/noteforge/internal/graph"
)

// ForceGraphNode is one node in the force-directed layout format consumed
// by browser-side graph renderers.
type ForceGraphNode struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Tags       []string `json:"tags,omitempty"`
	Degree     int      `json:"degree"`
	Centrality float64  `json:"centrality"`
	Community  *int     `json:"community,omitempty"`
}

// ForceGraphLink is one undirected edge in the force-directed layout format.
type ForceGraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
	Type   string  `json:"type"`
}

// ForceGraphData is the top-level force-graph JSON payload.
type ForceGraphData struct {
	Nodes []ForceGraphNode `json:"nodes"`
	Links []ForceGraphLink `json:"links"`
}

// BuildForceGraph converts a DocumentGraph into force-graph view data.
func BuildForceGraph(dg *graph.DocumentGraph) ForceGraphData {
	data := ForceGraphData{
		Nodes: make([]ForceGraphNode, 0, len(dg.Nodes)),
		Links: make([]ForceGraphLink, 0, len(dg.Edges)),
	}
	for _, n := range dg.Nodes {
		data.Nodes = append(data.Nodes, ForceGraphNode{
			ID:         n.DocID,
			Label:      n.Title,
			Tags:       n.Tags,
			Degree:     n.Degree,
			Centrality: n.Centrality,
			Community:  n.Community,
		})
	}
	for _, e := range dg.Edges {
		data.Links = append(data.Links, ForceGraphLink{
			Source: e.SourceID,
			Target: e.TargetID,
			Weight: e.Weight,
			Type:   e.RelationshipType,
		})
	}
	return data
}

// JSON marshals the force-graph data.
func (d ForceGraphData) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HostView is a center+expand subgraph suitable for a focused graph view:
// the requested document plus everything reachable within maxDistance hops.
type HostView struct {
	Center string           `json:"center"`
	Nodes  []ForceGraphNode `json:"nodes"`
	Links  []ForceGraphLink `json:"links"`
}

// BuildHostView returns the force-graph view of the subgraph centered on
// docID, using analyzer's neighbor map to bound the expansion.
func BuildHostView(dg *graph.DocumentGraph, analyzer *graph.Analyzer, docID string, maxDistance int) HostView {
	sub := ExpandFromNode(dg, analyzer, docID, maxDistance)
	fg := BuildForceGraph(sub)
	return HostView{Center: docID, Nodes: fg.Nodes, Links: fg.Links}
}
