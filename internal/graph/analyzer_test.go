package graph

import (
	"math"
	"testing"
)

// barbell returns two triangles {a,b,c} and {d,e,f} joined by one weak
// bridge c-d, a shape with two obvious communities and a clear bottleneck.
func barbell() *DocumentGraph {
	g := NewDocumentGraph()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		g.AddNode(&Node{DocID: id, Title: id})
	}
	edges := []struct {
		s, t string
		w    float64
	}{
		{"a", "b", 0.9}, {"b", "c", 0.9}, {"a", "c", 0.9},
		{"d", "e", 0.9}, {"e", "f", 0.9}, {"d", "f", 0.9},
		{"c", "d", 0.2},
	}
	for _, e := range edges {
		g.AddEdge(&Edge{SourceID: e.s, TargetID: e.t, Weight: e.w})
	}
	return g
}

func TestDetectCommunitiesSplitsBarbell(t *testing.T) {
	a := NewAnalyzer(barbell())
	communities := a.DetectCommunities(1.0)
	if len(communities) != 2 {
		t.Fatalf("expected 2 communities, got %d: %+v", len(communities), communities)
	}
	for _, c := range communities {
		if c.Size != 3 {
			t.Errorf("community %d size = %d, want 3", c.ID, c.Size)
		}
		// Each triangle is complete: internal density 1.
		if math.Abs(c.Density-1.0) > 1e-9 {
			t.Errorf("community %d density = %v, want 1.0", c.ID, c.Density)
		}
		if c.AvgCentrality <= 0 {
			t.Errorf("community %d avg centrality = %v", c.ID, c.AvgCentrality)
		}
	}
}

func TestPageRankSumsToOne(t *testing.T) {
	a := NewAnalyzer(barbell())
	pr := a.CalculatePageRank(0.85)
	var sum float64
	for _, v := range pr {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("pagerank sum = %v, want 1", sum)
	}
}

func TestBetweennessHighestAtBridge(t *testing.T) {
	a := NewAnalyzer(barbell())
	bw := a.CalculateBetweennessCentrality()
	// Every cross-triangle shortest path runs through c and d.
	for _, peripheral := range []string{"a", "b", "e", "f"} {
		if bw["c"] <= bw[peripheral] {
			t.Errorf("betweenness(c)=%v should exceed betweenness(%s)=%v", bw["c"], peripheral, bw[peripheral])
		}
	}
}

func TestIdentifyHubsOrderingAndLimit(t *testing.T) {
	a := NewAnalyzer(barbell())
	hubs := a.IdentifyHubs(3)
	if len(hubs) != 3 {
		t.Fatalf("expected 3 hubs, got %d", len(hubs))
	}
	for i := 1; i < len(hubs); i++ {
		if hubs[i].Score > hubs[i-1].Score {
			t.Errorf("hubs not sorted descending at %d: %+v", i, hubs)
		}
	}
	// The bridge endpoints dominate every blended component.
	if hubs[0].DocID != "c" && hubs[0].DocID != "d" {
		t.Errorf("expected a bridge endpoint as top hub, got %+v", hubs[0])
	}
}

func TestFindShortestPathCrossesBridge(t *testing.T) {
	a := NewAnalyzer(barbell())
	res, ok := a.FindShortestPath("a", "f")
	if !ok {
		t.Fatal("expected a path from a to f")
	}
	if res.Nodes[0] != "a" || res.Nodes[len(res.Nodes)-1] != "f" {
		t.Errorf("path endpoints wrong: %v", res.Nodes)
	}
	if res.TotalWeight <= 0 {
		t.Errorf("total weight = %v", res.TotalWeight)
	}
	seen := map[string]bool{}
	for _, n := range res.Nodes {
		if seen[n] {
			t.Errorf("path revisits %s: %v", n, res.Nodes)
		}
		seen[n] = true
	}
	if !seen["c"] || !seen["d"] {
		t.Errorf("path must cross the bridge: %v", res.Nodes)
	}
}

func TestFindShortestPathDisconnected(t *testing.T) {
	g := NewDocumentGraph()
	g.AddNode(&Node{DocID: "x"})
	g.AddNode(&Node{DocID: "y"})
	a := NewAnalyzer(g)
	if _, ok := a.FindShortestPath("x", "y"); ok {
		t.Error("expected no path between isolated nodes")
	}
}

func TestFindAllPathsSortedByLengthThenWeight(t *testing.T) {
	a := NewAnalyzer(barbell())
	paths := a.FindAllPaths("a", "c", 3)
	if len(paths) < 2 {
		t.Fatalf("expected direct and indirect paths, got %d", len(paths))
	}
	for i := 1; i < len(paths); i++ {
		li, lj := len(paths[i-1].Nodes), len(paths[i].Nodes)
		if li > lj {
			t.Errorf("paths not sorted by length: %v before %v", paths[i-1].Nodes, paths[i].Nodes)
		}
		if li == lj && paths[i-1].TotalWeight < paths[i].TotalWeight {
			t.Errorf("equal-length paths not sorted by weight desc")
		}
	}
	if len(paths[0].Nodes) != 2 {
		t.Errorf("shortest path a-c should be direct, got %v", paths[0].Nodes)
	}
}

func TestGetNeighborsBucketsByDistance(t *testing.T) {
	a := NewAnalyzer(barbell())
	hoods := a.GetNeighbors("a", 3)

	has := func(dist int, id string) bool {
		for _, n := range hoods[dist] {
			if n == id {
				return true
			}
		}
		return false
	}
	if !has(1, "b") || !has(1, "c") {
		t.Errorf("1-hop from a = %v", hoods[1])
	}
	if !has(2, "d") {
		t.Errorf("2-hop from a = %v", hoods[2])
	}
	if !has(3, "e") || !has(3, "f") {
		t.Errorf("3-hop from a = %v", hoods[3])
	}
	for dist, nodes := range hoods {
		for _, n := range nodes {
			if n == "a" {
				t.Errorf("seed appears at distance %d", dist)
			}
		}
	}
}

func TestClusteringCoefficientTriangle(t *testing.T) {
	a := NewAnalyzer(barbell())
	cc := a.CalculateClusteringCoefficient()
	// a's two neighbors (b, c) are connected: coefficient 1.
	if math.Abs(cc["a"]-1.0) > 1e-9 {
		t.Errorf("clustering(a) = %v, want 1", cc["a"])
	}
	// c has neighbors a, b, d; only a-b connected of 3 pairs.
	if math.Abs(cc["c"]-1.0/3.0) > 1e-9 {
		t.Errorf("clustering(c) = %v, want 1/3", cc["c"])
	}
}

func TestGraphStatistics(t *testing.T) {
	a := NewAnalyzer(barbell())
	stats := a.GetGraphStatistics()
	if stats.NodeCount != 6 || stats.EdgeCount != 7 {
		t.Errorf("counts = %d nodes / %d edges", stats.NodeCount, stats.EdgeCount)
	}
	if !stats.IsConnected || stats.ConnectedComponents != 1 {
		t.Errorf("connectivity: %+v", stats)
	}
	wantDensity := 7.0 / 15.0
	if math.Abs(stats.Density-wantDensity) > 1e-9 {
		t.Errorf("density = %v, want %v", stats.Density, wantDensity)
	}
	if stats.AverageClustering <= 0 {
		t.Errorf("average clustering = %v", stats.AverageClustering)
	}
}
