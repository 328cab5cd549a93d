package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// =============================================================================
// Document - Graph Serialization
// =============================================================================

// Document is the canonical serialization format for dependency graphs.
// Used for JSON export, API responses and the run store.
//
// Nodes and edges keep creation order, so decoding a document and encoding
// it again yields identical output.
type Document struct {
	Root  *NodeID   `json:"root,omitempty" bson:"root,omitempty"`
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
	Edges []EdgeDoc `json:"edges" bson:"edges"`
}

// NodeDoc is the serialized form of a Node.
type NodeDoc struct {
	ID      NodeID `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
}

// EdgeDoc is the serialized form of an Edge.
type EdgeDoc struct {
	From NodeID `json:"from" bson:"from"`
	To   NodeID `json:"to" bson:"to"`
}

// Document converts the graph to its serialization format. The first
// vertex is reported as the root.
func (g *Graph) Document() Document {
	doc := Document{
		Nodes: make([]NodeDoc, len(g.nodes)),
		Edges: make([]EdgeDoc, len(g.edges)),
	}
	if len(g.nodes) > 0 {
		root := g.nodes[0].ID
		doc.Root = &root
	}
	for i, n := range g.nodes {
		doc.Nodes[i] = NodeDoc{ID: n.ID, Name: n.Key.Name, Version: n.Key.Version}
	}
	for i, e := range g.edges {
		doc.Edges[i] = EdgeDoc{From: e.From, To: e.To}
	}
	return doc
}

// FromDocument rebuilds a Graph. Node IDs must be dense and listed in
// order, which is what [Graph.Document] produces.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for i, n := range doc.Nodes {
		if n.ID != NodeID(i) {
			return nil, fmt.Errorf("node %d: id %d out of order", i, n.ID)
		}
		key := Key{Name: n.Name, Version: n.Version}
		if _, ok := g.Lookup(key); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		g.GetOrCreate(key)
	}
	for _, e := range doc.Edges {
		if _, err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Document()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromDocument(doc)
}
