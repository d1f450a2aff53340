package graphexport

import (
	"strings"

	"github.com/arjun-iyer/noteforge/internal/graph"
)

// FilterByTags returns the subgraph induced by nodes carrying at least one
// of the given tags (case-insensitive); an edge survives only when both of
// its endpoints survive.
func FilterByTags(dg *graph.DocumentGraph, tags []string) *graph.DocumentGraph {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	out := graph.NewDocumentGraph()
	for id, n := range dg.Nodes {
		for _, t := range n.Tags {
			if want[strings.ToLower(t)] {
				cp := *n
				out.Nodes[id] = &cp
				break
			}
		}
	}

	for _, e := range dg.Edges {
		if _, ok := out.Nodes[e.SourceID]; !ok {
			continue
		}
		if _, ok := out.Nodes[e.TargetID]; !ok {
			continue
		}
		cp := *e
		out.Edges = append(out.Edges, &cp)
	}
	return out
}

// ExpandFromNode returns the subgraph reachable from seed within maxHops,
// using the analyzer's BFS neighbor map to pick nodes and keeping every
// edge whose endpoints both survive.
func ExpandFromNode(dg *graph.DocumentGraph, analyzer *graph.Analyzer, seed string, maxHops int) *graph.DocumentGraph {
	out := graph.NewDocumentGraph()

	seedNode, ok := dg.Nodes[seed]
	if !ok {
		return out
	}
	cp := *seedNode
	out.Nodes[seed] = &cp

	neighbors := analyzer.GetNeighbors(seed, maxHops)
	for _, ids := range neighbors {
		for _, id := range ids {
			if n, ok := dg.Nodes[id]; ok {
				ncp := *n
				out.Nodes[id] = &ncp
			}
		}
	}

	for _, e := range dg.Edges {
		if _, ok := out.Nodes[e.SourceID]; !ok {
			continue
		}
		if _, ok := out.Nodes[e.TargetID]; !ok {
			continue
		}
		ecp := *e
		out.Edges = append(out.Edges, &ecp)
	}
	return out
}
