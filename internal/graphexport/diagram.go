package graphexport

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/arjun-iyer/noteforge/internal/graph"
)

// maxLabelLen truncates diagram node labels, matching the 30-character
// limit this view format has always used for readability in dense graphs.
const maxLabelLen = 30

// DiagramNode is a box in the rendered diagram.
type DiagramNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
}

// DiagramEdge is an edge between two diagram nodes, styled by weight band.
type DiagramEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Style string `json:"style"` // "strong", "medium", or "weak"
}

// DiagramData is the JSON-serializable node/edge diagram structure,
// generalized from this codebase's architecture-diagram serializer to
// arbitrary document graphs.
type DiagramData struct {
	Nodes []DiagramNode `json:"nodes"`
	Edges []DiagramEdge `json:"edges"`
}

// BuildDiagram converts a DocumentGraph into diagram view data: labels
// truncated to maxLabelLen, edges banded by weight, undirected pairs
// deduplicated.
func BuildDiagram(dg *graph.DocumentGraph) DiagramData {
	data := DiagramData{}

	ids := make([]string, 0, len(dg.Nodes))
	for id := range dg.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := dg.Nodes[id]
		group := ""
		if n.Community != nil {
			group = sanitizeID(groupLabel(*n.Community))
		}
		data.Nodes = append(data.Nodes, DiagramNode{
			ID:    sanitizeID(id),
			Label: truncateLabel(n.Title),
			Group: group,
		})
	}

	seen := make(map[string]bool)
	for _, e := range dg.Edges {
		key := canonicalPairKey(e.SourceID, e.TargetID)
		if seen[key] {
			continue
		}
		seen[key] = true
		data.Edges = append(data.Edges, DiagramEdge{
			From:  sanitizeID(e.SourceID),
			To:    sanitizeID(e.TargetID),
			Style: weightBand(e.Weight),
		})
	}

	return data
}

// JSON marshals the diagram data.
func (d DiagramData) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func weightBand(weight float64) string {
	switch {
	case weight >= 0.66:
		return "strong"
	case weight >= 0.33:
		return "medium"
	default:
		return "weak"
	}
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelLen {
		return s
	}
	return string(r[:maxLabelLen-1]) + "…"
}

func canonicalPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

func groupLabel(community int) string {
	return "community_" + itoa(community)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// sanitizeID converts a string into a diagram-safe node ID, adapted from
// this codebase's mermaid ID sanitizer.
func sanitizeID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		".", "_",
		"-", "_",
		" ", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
		":", "_",
	)
	return replacer.Replace(s)
}
