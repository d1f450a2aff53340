package graphcore

import (
	"container/heap"
	"sort"
)

// PageRank computes weighted PageRank scores using the standard power
// iteration with damping factor alpha. Dangling nodes (degree 0) redistribute
// their mass uniformly, matching networkx's behaviour.
func (g *Graph) PageRank(alpha float64) map[string]float64 {
	n := g.NodeCount()
	rank := make(map[string]float64, n)
	if n == 0 {
		return rank
	}

	nodeWeight := make(map[string]float64, n)
	for _, id := range g.order {
		var w float64
		for _, ew := range g.adj[id] {
			w += ew
		}
		nodeWeight[id] = w
		rank[id] = 1.0 / float64(n)
	}

	const iterations = 100
	const tolerance = 1e-10

	for iter := 0; iter < iterations; iter++ {
		next := make(map[string]float64, n)
		var danglingSum float64
		for _, id := range g.order {
			if nodeWeight[id] == 0 {
				danglingSum += rank[id]
			}
			next[id] = (1 - alpha) / float64(n)
		}
		danglingShare := alpha * danglingSum / float64(n)

		for _, id := range g.order {
			if nodeWeight[id] == 0 {
				continue
			}
			share := alpha * rank[id] / nodeWeight[id]
			for nb, w := range g.adj[id] {
				next[nb] += share * w
			}
		}
		for _, id := range g.order {
			next[id] += danglingShare
		}

		var delta float64
		for _, id := range g.order {
			d := next[id] - rank[id]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		rank = next
		if delta < tolerance {
			break
		}
	}
	return rank
}

// DegreeCentrality returns each node's degree normalized by n-1.
func (g *Graph) DegreeCentrality() map[string]float64 {
	n := g.NodeCount()
	out := make(map[string]float64, n)
	if n <= 1 {
		for _, id := range g.order {
			out[id] = 0
		}
		return out
	}
	for _, id := range g.order {
		out[id] = float64(g.Degree(id)) / float64(n-1)
	}
	return out
}

// BetweennessCentrality computes weighted betweenness centrality via
// Brandes' algorithm, treating edge weight as distance cost (1/weight),
// consistent with how the graph builder scores stronger relationships as
// cheaper to traverse.
func (g *Graph) BetweennessCentrality() map[string]float64 {
	cb := make(map[string]float64, len(g.order))
	for _, id := range g.order {
		cb[id] = 0
	}

	for _, s := range g.order {
		stack := []string{}
		pred := make(map[string][]string)
		sigma := make(map[string]float64)
		dist := make(map[string]float64)
		for _, v := range g.order {
			sigma[v] = 0
			dist[v] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		pq := &pqItems{{node: s, dist: 0}}
		heap.Init(pq)
		visited := make(map[string]bool)

		for pq.Len() > 0 {
			item := heap.Pop(pq).(pqItem)
			v := item.node
			if visited[v] {
				continue
			}
			visited[v] = true
			stack = append(stack, v)

			neighbors := sortedNeighbors(g.adj[v])
			for _, nb := range neighbors {
				w := g.adj[v][nb]
				cost := edgeCost(w)
				altDist := dist[v] + cost
				if dist[nb] == -1 || altDist < dist[nb] {
					dist[nb] = altDist
					heap.Push(pq, pqItem{node: nb, dist: altDist})
					sigma[nb] = sigma[v]
					pred[nb] = []string{v}
				} else if altDist == dist[nb] {
					sigma[nb] += sigma[v]
					pred[nb] = append(pred[nb], v)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] != 0 {
					delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
				}
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	// Undirected graph: each shortest path counted from both endpoints.
	n := float64(g.NodeCount())
	var scale float64
	if n > 2 {
		scale = 1.0 / 2.0
	}
	for k := range cb {
		cb[k] *= scale
	}
	return cb
}

func edgeCost(weight float64) float64 {
	if weight <= 0 {
		return 1e6
	}
	return 1.0 / weight
}

func sortedNeighbors(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// pqItem/pqItems implement a min-heap over (node, dist) pairs for Dijkstra.
type pqItem struct {
	node string
	dist float64
}
type pqItems []pqItem

func (p pqItems) Len() int            { return len(p) }
func (p pqItems) Less(i, j int) bool  { return p[i].dist < p[j].dist }
func (p pqItems) Swap(i, j int)       { p[i], p[j] = p[j], p[i] }
func (p *pqItems) Push(x interface{}) { *p = append(*p, x.(pqItem)) }
func (p *pqItems) Pop() interface{} {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// ShortestPath runs weighted Dijkstra from source to target with each edge
// costing 1/weight (heavier edges are "closer"), returning the node path
// and the sum of its edges' raw weights. ok is false if no path exists.
func (g *Graph) ShortestPath(source, target string) (path []string, totalWeight float64, ok bool) {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil, 0, false
	}
	dist := make(map[string]float64)
	prev := make(map[string]string)
	for _, id := range g.order {
		dist[id] = -1
	}
	dist[source] = 0

	pq := &pqItems{{node: source, dist: 0}}
	heap.Init(pq)
	visited := make(map[string]bool)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		v := item.node
		if visited[v] {
			continue
		}
		visited[v] = true
		if v == target {
			break
		}
		for _, nb := range sortedNeighbors(g.adj[v]) {
			w := g.adj[v][nb]
			alt := dist[v] + edgeCost(w)
			if dist[nb] == -1 || alt < dist[nb] {
				dist[nb] = alt
				prev[nb] = v
				heap.Push(pq, pqItem{node: nb, dist: alt})
			}
		}
	}

	if dist[target] == -1 {
		return nil, 0, false
	}

	// Reconstruct path.
	for cur := target; ; {
		path = append([]string{cur}, path...)
		if cur == source {
			break
		}
		cur = prev[cur]
	}

	for i := 0; i < len(path)-1; i++ {
		w, _ := g.Weight(path[i], path[i+1])
		totalWeight += w
	}
	return path, totalWeight, true
}

// AllSimplePaths enumerates every simple path between source and target with
// at most maxLength edges, via bounded DFS. Paths are sorted by (length,
// -totalWeight).
func (g *Graph) AllSimplePaths(source, target string, maxLength int) [][]string {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil
	}

	var results [][]string
	visited := map[string]bool{source: true}
	path := []string{source}

	var dfs func(cur string)
	dfs = func(cur string) {
		if len(path)-1 > maxLength {
			return
		}
		if cur == target && len(path) > 1 {
			cp := make([]string, len(path))
			copy(cp, path)
			results = append(results, cp)
			return
		}
		if len(path)-1 == maxLength {
			return
		}
		for _, nb := range sortedNeighbors(g.adj[cur]) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			path = append(path, nb)
			dfs(nb)
			path = path[:len(path)-1]
			visited[nb] = false
		}
	}
	dfs(source)

	sort.Slice(results, func(i, j int) bool {
		li, lj := len(results[i]), len(results[j])
		if li != lj {
			return li < lj
		}
		return g.pathWeight(results[i]) > g.pathWeight(results[j])
	})
	return results
}

func (g *Graph) pathWeight(path []string) float64 {
	var total float64
	for i := 0; i < len(path)-1; i++ {
		w, _ := g.Weight(path[i], path[i+1])
		total += w
	}
	return total
}

// Neighborhoods does a BFS from id and buckets reachable nodes by hop
// distance, up to maxDistance hops.
func (g *Graph) Neighborhoods(id string, maxDistance int) map[int][]string {
	out := make(map[int][]string)
	if !g.HasNode(id) {
		return out
	}
	visited := map[string]bool{id: true}
	current := []string{id}

	for distance := 1; distance <= maxDistance; distance++ {
		var next []string
		for _, n := range current {
			for _, nb := range sortedNeighbors(g.adj[n]) {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		sort.Strings(next)
		out[distance] = next
		current = next
	}
	return out
}

// ClusteringCoefficient computes the local clustering coefficient for every
// node: the fraction of a node's neighbor pairs that are themselves
// connected.
func (g *Graph) ClusteringCoefficient() map[string]float64 {
	out := make(map[string]float64, len(g.order))
	for _, id := range g.order {
		neighbors := sortedNeighbors(g.adj[id])
		k := len(neighbors)
		if k < 2 {
			out[id] = 0
			continue
		}
		var links int
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				if _, ok := g.adj[neighbors[i]][neighbors[j]]; ok {
					links++
				}
			}
		}
		possible := float64(k*(k-1)) / 2
		out[id] = float64(links) / possible
	}
	return out
}

// AverageClustering returns the mean clustering coefficient over all nodes.
func (g *Graph) AverageClustering() float64 {
	coeffs := g.ClusteringCoefficient()
	if len(coeffs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return sum / float64(len(coeffs))
}
