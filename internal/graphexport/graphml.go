package graphexport

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/arjun-iyer/noteforge/internal/graph"
)

// graphmlKey declares one typed attribute key, node- or edge-scoped, in the
// header every GraphML consumer (Gephi, yEd, networkx) expects before the
// graph body.
type graphmlKey struct {
	XMLName xml.Name `xml:"key"`
	ID      string   `xml:"id,attr"`
	For     string   `xml:"for,attr"`
	Name    string   `xml:"attr.name,attr"`
	Type    string   `xml:"attr.type,attr"`
}

type graphmlData struct {
	XMLName xml.Name `xml:"data"`
	Key     string   `xml:"key,attr"`
	Value   string   `xml:",chardata"`
}

type graphmlNode struct {
	XMLName xml.Name      `xml:"node"`
	ID      string        `xml:"id,attr"`
	Data    []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	XMLName xml.Name      `xml:"edge"`
	Source  string        `xml:"source,attr"`
	Target  string        `xml:"target,attr"`
	Data    []graphmlData `xml:"data"`
}

type graphmlGraph struct {
	XMLName     xml.Name      `xml:"graph"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

// BuildGraphML serializes a DocumentGraph as a standard GraphML document:
// node keys "title"/"path"/"degree", edge keys "weight"/"type". Values are
// XML-escaped by encoding/xml; undirected edges are written once each since
// edgedefault="undirected" already tells consumers not to double them.
func BuildGraphML(dg *graph.DocumentGraph) (string, error) {
	doc := graphmlDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "title", For: "node", Name: "title", Type: "string"},
			{ID: "path", For: "node", Name: "path", Type: "string"},
			{ID: "degree", For: "node", Name: "degree", Type: "int"},
			{ID: "weight", For: "edge", Name: "weight", Type: "double"},
			{ID: "type", For: "edge", Name: "type", Type: "string"},
		},
		Graph: graphmlGraph{EdgeDefault: "undirected"},
	}

	ids := make([]string, 0, len(dg.Nodes))
	for id := range dg.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := dg.Nodes[id]
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: id,
			Data: []graphmlData{
				{Key: "title", Value: n.Title},
				{Key: "path", Value: n.FilePath},
				{Key: "degree", Value: strconv.Itoa(n.Degree)},
			},
		})
	}

	for _, e := range dg.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: e.SourceID,
			Target: e.TargetID,
			Data: []graphmlData{
				{Key: "weight", Value: strconv.FormatFloat(e.Weight, 'f', 6, 64)},
				{Key: "type", Value: e.RelationshipType},
			},
		})
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("graphexport: marshal graphml: %w", err)
	}
	return xml.Header + string(b), nil
}
