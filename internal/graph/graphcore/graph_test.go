package graphcore

import (
	"math"
	"reflect"
	"testing"
)

func TestAddNodeAndEdgeBasics(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("a") // idempotent
	g.AddEdge("a", "b", 0.5)

	if g.NodeCount() != 2 {
		t.Errorf("node count = %d", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("edge count = %d", g.EdgeCount())
	}
	if !g.HasNode("b") {
		t.Error("AddEdge must create missing endpoints")
	}
	if w, ok := g.Weight("b", "a"); !ok || w != 0.5 {
		t.Errorf("weight(b,a) = %v, %v", w, ok)
	}

	g.AddEdge("a", "b", 0.8)
	if w, _ := g.Weight("a", "b"); w != 0.8 {
		t.Errorf("re-adding an edge must overwrite the weight, got %v", w)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("re-adding an edge must not duplicate it, count = %d", g.EdgeCount())
	}
}

func TestDensityAndTotalWeight(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 0.4)
	g.AddEdge("b", "c", 0.6)

	if math.Abs(g.Density()-2.0/3.0) > 1e-9 {
		t.Errorf("density = %v", g.Density())
	}
	if math.Abs(g.TotalWeight()-1.0) > 1e-9 {
		t.Errorf("total weight = %v", g.TotalWeight())
	}
}

func TestConnectedComponents(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)
	g.AddEdge("x", "y", 1)
	g.AddNode("lone")

	comps := g.ConnectedComponents()
	if len(comps) != 3 {
		t.Fatalf("expected 3 components, got %v", comps)
	}
	if g.IsConnected() {
		t.Error("graph with 3 components is not connected")
	}

	sizes := map[int]int{}
	for _, c := range comps {
		sizes[len(c)]++
	}
	if sizes[3] != 1 || sizes[2] != 1 || sizes[1] != 1 {
		t.Errorf("component sizes wrong: %v", comps)
	}
}

func TestPageRankUniformOnSymmetricGraph(t *testing.T) {
	g := New()
	// A 4-cycle: every node structurally identical.
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)
	g.AddEdge("c", "d", 1)
	g.AddEdge("d", "a", 1)

	pr := g.PageRank(0.85)
	var sum float64
	for _, v := range pr {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("pagerank sum = %v", sum)
	}
	for id, v := range pr {
		if math.Abs(v-0.25) > 1e-6 {
			t.Errorf("pagerank[%s] = %v, want 0.25", id, v)
		}
	}
}

func TestPageRankHandlesDanglingNodes(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddNode("isolated")

	pr := g.PageRank(0.85)
	var sum float64
	for _, v := range pr {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("pagerank with dangling node should still sum to 1, got %v", sum)
	}
	if pr["isolated"] <= 0 {
		t.Errorf("isolated node rank = %v", pr["isolated"])
	}
}

func TestDegreeCentrality(t *testing.T) {
	g := New()
	g.AddEdge("hub", "a", 1)
	g.AddEdge("hub", "b", 1)
	g.AddEdge("hub", "c", 1)

	dc := g.DegreeCentrality()
	if dc["hub"] != 1.0 {
		t.Errorf("hub degree centrality = %v, want 1", dc["hub"])
	}
	if math.Abs(dc["a"]-1.0/3.0) > 1e-9 {
		t.Errorf("leaf degree centrality = %v, want 1/3", dc["a"])
	}
}

func TestBetweennessCentralityStar(t *testing.T) {
	g := New()
	g.AddEdge("hub", "a", 1)
	g.AddEdge("hub", "b", 1)
	g.AddEdge("hub", "c", 1)

	bw := g.BetweennessCentrality()
	if bw["hub"] <= 0 {
		t.Errorf("star center betweenness = %v, want > 0", bw["hub"])
	}
	for _, leaf := range []string{"a", "b", "c"} {
		if bw[leaf] != 0 {
			t.Errorf("leaf %s betweenness = %v, want 0", leaf, bw[leaf])
		}
	}
}

func TestShortestPathPrefersHeavyEdges(t *testing.T) {
	// Weight is affinity, so the path cost of an edge is 1/weight: two
	// strong hops beat one weak direct edge.
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "c", 1.0)
	g.AddEdge("a", "c", 0.1)

	path, total, ok := g.ShortestPath("a", "c")
	if !ok {
		t.Fatal("expected a path")
	}
	if !reflect.DeepEqual(path, []string{"a", "b", "c"}) {
		t.Errorf("path = %v, want detour through b", path)
	}
	if math.Abs(total-2.0) > 1e-9 {
		t.Errorf("total weight = %v, want 2", total)
	}
}

func TestShortestPathMissingAndDisconnected(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddNode("z")

	if _, _, ok := g.ShortestPath("a", "nope"); ok {
		t.Error("expected no path to an unknown node")
	}
	if _, _, ok := g.ShortestPath("a", "z"); ok {
		t.Error("expected no path to a disconnected node")
	}
	if path, _, ok := g.ShortestPath("a", "a"); !ok || len(path) != 1 {
		t.Errorf("self path = %v, %v", path, ok)
	}
}

func TestAllSimplePathsRespectsCutoff(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)
	g.AddEdge("a", "c", 1)
	g.AddEdge("c", "d", 1)

	paths := g.AllSimplePaths("a", "d", 2)
	if len(paths) != 1 {
		t.Fatalf("with cutoff 2 only a-c-d fits, got %v", paths)
	}
	if !reflect.DeepEqual(paths[0], []string{"a", "c", "d"}) {
		t.Errorf("path = %v", paths[0])
	}

	paths = g.AllSimplePaths("a", "d", 3)
	if len(paths) != 2 {
		t.Fatalf("with cutoff 3 expected 2 simple paths, got %v", paths)
	}
	if len(paths[0]) > len(paths[1]) {
		t.Errorf("paths not sorted by length: %v", paths)
	}
}

func TestNeighborhoodsStopsAtFrontier(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)

	hoods := g.Neighborhoods("a", 5)
	if !reflect.DeepEqual(hoods[1], []string{"b"}) || !reflect.DeepEqual(hoods[2], []string{"c"}) {
		t.Errorf("neighborhoods = %v", hoods)
	}
	if _, ok := hoods[3]; ok {
		t.Error("no third hop exists, map must stop at the frontier")
	}
}

func TestClusteringCoefficient(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)
	g.AddEdge("a", "c", 1)
	g.AddEdge("c", "d", 1)

	cc := g.ClusteringCoefficient()
	if cc["a"] != 1.0 {
		t.Errorf("clustering(a) = %v", cc["a"])
	}
	if math.Abs(cc["c"]-1.0/3.0) > 1e-9 {
		t.Errorf("clustering(c) = %v, want 1/3", cc["c"])
	}
	if cc["d"] != 0 {
		t.Errorf("clustering(d) = %v, want 0 for degree-1 node", cc["d"])
	}
}

func TestDetectCommunitiesTwoCliques(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 1)
	g.AddEdge("a", "c", 1)
	g.AddEdge("x", "y", 1)
	g.AddEdge("y", "z", 1)
	g.AddEdge("x", "z", 1)
	g.AddEdge("c", "x", 0.1)

	comm := g.DetectCommunities(1.0)
	if comm["a"] != comm["b"] || comm["b"] != comm["c"] {
		t.Errorf("first clique split: %v", comm)
	}
	if comm["x"] != comm["y"] || comm["y"] != comm["z"] {
		t.Errorf("second clique split: %v", comm)
	}
	if comm["a"] == comm["x"] {
		t.Errorf("cliques merged: %v", comm)
	}
	// Ids are renumbered densely from 0.
	for id, c := range comm {
		if c < 0 || c > 1 {
			t.Errorf("community id for %s = %d, want dense 0..1", id, c)
		}
	}
}

func TestDetectCommunitiesEmptyAndEdgeless(t *testing.T) {
	g := New()
	if got := g.DetectCommunities(1.0); len(got) != 0 {
		t.Errorf("empty graph communities = %v", got)
	}
	g.AddNode("a")
	g.AddNode("b")
	comm := g.DetectCommunities(1.0)
	if comm["a"] == comm["b"] {
		t.Errorf("edgeless nodes must stay in distinct communities: %v", comm)
	}
}
