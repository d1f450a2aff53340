package graph

import (
	"sort"

	"github.com/arjun-iyer/noteforge/internal/graph/graphcore"
)

// Analyzer runs structural analyses (centrality, community, path finding)
// over a DocumentGraph, caching the expensive ones.
type Analyzer struct {
	dg *DocumentGraph
	g  *graphcore.Graph

	pagerank    map[string]float64
	betweenness map[string]float64
}

// NewAnalyzer builds the underlying graphcore.Graph once from dg.
func NewAnalyzer(dg *DocumentGraph) *Analyzer {
	g := graphcore.New()
	for id := range dg.Nodes {
		g.AddNode(id)
	}
	for _, e := range dg.Edges {
		g.AddEdge(e.SourceID, e.TargetID, e.Weight)
	}
	return &Analyzer{dg: dg, g: g}
}

// CommunityInfo summarizes one detected community.
type CommunityInfo struct {
	ID            int
	Members       []string
	Size          int
	Density       float64
	AvgCentrality float64
}

// DetectCommunities partitions the graph and reports per-community stats.
func (a *Analyzer) DetectCommunities(resolution float64) []CommunityInfo {
	assignment := a.g.DetectCommunities(resolution)

	byCommunity := make(map[int][]string)
	for id, c := range assignment {
		byCommunity[c] = append(byCommunity[c], id)
	}

	pr := a.CalculatePageRank(0.85)

	var ids []int
	for c := range byCommunity {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	out := make([]CommunityInfo, 0, len(ids))
	for _, c := range ids {
		members := byCommunity[c]
		sort.Strings(members)

		sub := graphcore.New()
		memberSet := make(map[string]bool, len(members))
		for _, m := range members {
			sub.AddNode(m)
			memberSet[m] = true
		}
		for _, e := range a.dg.Edges {
			if memberSet[e.SourceID] && memberSet[e.TargetID] {
				sub.AddEdge(e.SourceID, e.TargetID, e.Weight)
			}
		}

		var centralitySum float64
		for _, m := range members {
			centralitySum += pr[m]
		}
		avgCentrality := 0.0
		if len(members) > 0 {
			avgCentrality = centralitySum / float64(len(members))
		}

		out = append(out, CommunityInfo{
			ID:            c,
			Members:       members,
			Size:          len(members),
			Density:       sub.Density(),
			AvgCentrality: avgCentrality,
		})
	}
	return out
}

// CalculatePageRank returns cached weighted PageRank scores.
func (a *Analyzer) CalculatePageRank(alpha float64) map[string]float64 {
	if a.pagerank == nil {
		a.pagerank = a.g.PageRank(alpha)
	}
	return a.pagerank
}

// CalculateDegreeCentrality returns normalized degree centrality.
func (a *Analyzer) CalculateDegreeCentrality() map[string]float64 {
	return a.g.DegreeCentrality()
}

// CalculateBetweennessCentrality returns cached weighted betweenness centrality.
func (a *Analyzer) CalculateBetweennessCentrality() map[string]float64 {
	if a.betweenness == nil {
		a.betweenness = a.g.BetweennessCentrality()
	}
	return a.betweenness
}

// HubScore describes a document's centrality-derived hub ranking.
type HubScore struct {
	DocID       string
	Score       float64
	PageRank    float64
	Betweenness float64
	Degree      float64
}

// IdentifyHubs ranks documents by a blended centrality score
// (0.5*pagerank + 0.3*betweenness + 0.2*degree_centrality) and returns the
// top n.
func (a *Analyzer) IdentifyHubs(n int) []HubScore {
	pr := a.CalculatePageRank(0.85)
	bw := a.CalculateBetweennessCentrality()
	deg := a.CalculateDegreeCentrality()

	scores := make([]HubScore, 0, len(a.dg.Nodes))
	for id := range a.dg.Nodes {
		s := HubScore{
			DocID:       id,
			PageRank:    pr[id],
			Betweenness: bw[id],
			Degree:      deg[id],
		}
		s.Score = 0.5*s.PageRank + 0.3*s.Betweenness + 0.2*s.Degree
		scores = append(scores, s)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].DocID < scores[j].DocID
	})

	if n >= 0 && n < len(scores) {
		scores = scores[:n]
	}
	return scores
}

// PathResult is a single path through the document graph.
type PathResult struct {
	Nodes       []string
	TotalWeight float64
}

// FindShortestPath returns the shortest weighted path between two documents.
func (a *Analyzer) FindShortestPath(source, target string) (PathResult, bool) {
	path, weight, ok := a.g.ShortestPath(source, target)
	if !ok {
		return PathResult{}, false
	}
	return PathResult{Nodes: path, TotalWeight: weight}, true
}

// FindAllPaths enumerates simple paths up to maxLength edges, sorted by
// (length ascending, total weight descending).
func (a *Analyzer) FindAllPaths(source, target string, maxLength int) []PathResult {
	paths := a.g.AllSimplePaths(source, target, maxLength)
	out := make([]PathResult, 0, len(paths))
	for _, p := range paths {
		var w float64
		for i := 0; i < len(p)-1; i++ {
			if ew, ok := a.g.Weight(p[i], p[i+1]); ok {
				w += ew
			}
		}
		out = append(out, PathResult{Nodes: p, TotalWeight: w})
	}
	return out
}

// GetNeighbors returns documents reachable within maxDistance hops, bucketed
// by hop distance.
func (a *Analyzer) GetNeighbors(docID string, maxDistance int) map[int][]string {
	return a.g.Neighborhoods(docID, maxDistance)
}

// CalculateClusteringCoefficient returns the local clustering coefficient
// for every document.
func (a *Analyzer) CalculateClusteringCoefficient() map[string]float64 {
	return a.g.ClusteringCoefficient()
}

// Statistics summarizes the whole graph's structure.
type Statistics struct {
	NodeCount           int
	EdgeCount           int
	Density             float64
	AverageClustering   float64
	ConnectedComponents int
	IsConnected         bool
}

// GetGraphStatistics reports summary structural metrics.
func (a *Analyzer) GetGraphStatistics() Statistics {
	return Statistics{
		NodeCount:           a.g.NodeCount(),
		EdgeCount:           a.g.EdgeCount(),
		Density:             a.g.Density(),
		AverageClustering:   a.g.AverageClustering(),
		ConnectedComponents: len(a.g.ConnectedComponents()),
		IsConnected:         a.g.IsConnected(),
	}
}
