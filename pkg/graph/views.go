package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/hierarchy"
	"github.com/matzehuels/musclegraph/pkg/layout"
)

// Visualization types.
const (
	VizTypeNodelink = "nodelink"
)

// =============================================================================
// Forest
// =============================================================================

// Forest is the serialized output of hierarchy.BuildForest.
type Forest struct {
	Fingerprint string                `json:"fingerprint,omitempty"`
	Roots       []*hierarchy.TreeNode `json:"roots"`
}

// NewForest wraps roots with the fingerprint of the catalog they came from.
func NewForest(fingerprint string, roots []*hierarchy.TreeNode) Forest {
	if roots == nil {
		roots = []*hierarchy.TreeNode{}
	}
	return Forest{Fingerprint: fingerprint, Roots: roots}
}

// MarshalForest serializes a Forest to pretty-printed JSON bytes.
func MarshalForest(f Forest) ([]byte, error) { return marshalJSON(f) }

// UnmarshalForest deserializes JSON bytes into a Forest.
func UnmarshalForest(data []byte) (Forest, error) {
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return Forest{}, fmt.Errorf("unmarshal forest: %w", err)
	}
	return f, nil
}

// WriteForestFile writes a Forest to a JSON file.
func WriteForestFile(f Forest, path string) error { return writeJSONFile(f, path) }

// ReadForestFile reads a Forest from a JSON file.
func ReadForestFile(path string) (Forest, error) { return readJSONFile[Forest](path) }

// =============================================================================
// Connections
// =============================================================================

// Connections is the serialized output of connect.Find.
type Connections struct {
	Fingerprint string                          `json:"fingerprint,omitempty"`
	Strategy    string                          `json:"strategy,omitempty"`
	Connections map[string][]connect.Connection `json:"connections"`
}

// Pairs returns each connected pair once, see connect.Pairs.
func (c Connections) Pairs() []connect.Connection { return connect.Pairs(c.Connections) }

// MarshalConnections serializes Connections to pretty-printed JSON bytes.
// Map keys are sorted by encoding/json, so output is deterministic.
func MarshalConnections(c Connections) ([]byte, error) { return marshalJSON(c) }

// UnmarshalConnections deserializes JSON bytes into Connections.
func UnmarshalConnections(data []byte) (Connections, error) {
	var c Connections
	if err := json.Unmarshal(data, &c); err != nil {
		return Connections{}, fmt.Errorf("unmarshal connections: %w", err)
	}
	if c.Connections == nil {
		return Connections{}, fmt.Errorf("connections document must contain a connections map")
	}
	return c, nil
}

// WriteConnectionsFile writes Connections to a JSON file.
func WriteConnectionsFile(c Connections, path string) error { return writeJSONFile(c, path) }

// ReadConnectionsFile reads Connections from a JSON file.
func ReadConnectionsFile(path string) (Connections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Connections{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalConnections(data)
}

// =============================================================================
// Layout - Visualization Format
// =============================================================================

// Layout is the serialization format for node-link visualizations.
//
// Nodes and Edges carry the computed coordinates. DOT and Engine are set
// once the layout has been converted for Graphviz rendering.
type Layout struct {
	VizType     string `json:"vizType"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Nodes []layout.Node `json:"nodes"`
	Edges []layout.Edge `json:"edges"`

	DOT    string `json:"dot,omitempty"`
	Engine string `json:"engine,omitempty"`
}

// NewLayout exports a computed layout. Width and Height span the bounding
// box of the node positions.
func NewLayout(fingerprint string, l *layout.Layout) Layout {
	b := l.Bounds()
	return Layout{
		VizType:     VizTypeNodelink,
		Fingerprint: fingerprint,
		Width:       b.Width(),
		Height:      b.Height(),
		Nodes:       l.Nodes,
		Edges:       l.Edges,
	}
}

// Computed returns the positioned nodes and edges as a layout.Layout.
func (l Layout) Computed() *layout.Layout {
	out := &layout.Layout{Nodes: l.Nodes, Edges: l.Edges}
	if out.Nodes == nil {
		out.Nodes = []layout.Node{}
	}
	if out.Edges == nil {
		out.Edges = []layout.Edge{}
	}
	return out
}

// IsNodelink returns true if this is a nodelink layout.
func (l *Layout) IsNodelink() bool { return l.VizType == VizTypeNodelink }

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) { return marshalJSON(l) }

// UnmarshalLayout deserializes JSON bytes into a Layout.
// A missing vizType defaults to nodelink.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.VizType == "" {
		l.VizType = VizTypeNodelink
	}
	if !l.IsNodelink() {
		return Layout{}, fmt.Errorf("unsupported viz type %q", l.VizType)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
