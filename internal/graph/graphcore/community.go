package graphcore

import "sort"

// Community assigns every node to an integer community id.
type Community map[string]int

// DetectCommunities runs a single-level greedy modularity-optimization pass
// in the style of the Louvain method: nodes repeatedly move to whichever
// neighboring community most increases modularity, until no move helps.
// resolution scales the null-model term (higher values favor more, smaller
// communities). The partition this pass reaches is returned as is: there is
// no aggregation into super-nodes and no fallback to another merging method.
func (g *Graph) DetectCommunities(resolution float64) Community {
	n := g.NodeCount()
	comm := make(Community, n)
	if n == 0 {
		return comm
	}

	for i, id := range g.order {
		comm[id] = i
	}

	totalWeight := g.TotalWeight()
	if totalWeight == 0 {
		// No edges: every node is its own community.
		return comm
	}

	m2 := 2 * totalWeight
	degree := make(map[string]float64, n)
	for _, id := range g.order {
		var w float64
		for _, ew := range g.adj[id] {
			w += ew
		}
		degree[id] = w
	}

	communityDegree := make(map[int]float64, n)
	for _, id := range g.order {
		communityDegree[comm[id]] += degree[id]
	}

	improved := true
	for pass := 0; improved && pass < 100; pass++ {
		improved = false
		for _, id := range g.order {
			currentComm := comm[id]
			communityDegree[currentComm] -= degree[id]

			neighborWeightByComm := make(map[int]float64)
			for nb, w := range g.adj[id] {
				neighborWeightByComm[comm[nb]] += w
			}

			bestComm := currentComm
			bestGain := neighborWeightByComm[currentComm] - resolution*communityDegree[currentComm]*degree[id]/m2

			comms := make([]int, 0, len(neighborWeightByComm))
			for c := range neighborWeightByComm {
				comms = append(comms, c)
			}
			sort.Ints(comms)

			for _, c := range comms {
				gain := neighborWeightByComm[c] - resolution*communityDegree[c]*degree[id]/m2
				if gain > bestGain {
					bestGain = gain
					bestComm = c
				}
			}

			comm[id] = bestComm
			communityDegree[bestComm] += degree[id]
			if bestComm != currentComm {
				improved = true
			}
		}
	}

	return renumber(comm, g.order)
}

// renumber reassigns community ids to a dense 0..k-1 range in order of
// first appearance, for stable, presentable output.
func renumber(comm Community, order []string) Community {
	next := 0
	remap := make(map[int]int)
	out := make(Community, len(comm))
	for _, id := range order {
		c := comm[id]
		nc, ok := remap[c]
		if !ok {
			nc = next
			remap[c] = nc
			next++
		}
		out[id] = nc
	}
	return out
}
