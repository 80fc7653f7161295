package layout

import (
	"slices"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/connect"
	"github.com/matzehuels/musclegraph/pkg/errors"
)

// Default spacing, in abstract units.
const (
	DefaultLevelWidth = 220.0
	DefaultNodeHeight = 40.0
)

// Node kinds other than the catalog kinds.
const (
	KindNode     = "node"     // anatomy node without a catalog kind
	KindExercise = "exercise" // exercise fan-out leaf
)

// Edge kinds.
const (
	EdgeHierarchy  = "hierarchy"
	EdgeExercise   = "exercise"
	EdgeConnection = "connection"
)

// Options controls spacing and optional content.
type Options struct {
	LevelWidth float64
	NodeHeight float64

	// IncludeExercises adds direct exercise links as leaf children.
	IncludeExercises bool

	// Connections, when set, adds cross-region edges between placed nodes.
	// It is typically the output of connect.Find.
	Connections map[string][]connect.Connection

	// Exercise resolves exercise names for fan-out labels. Optional.
	Exercise func(id string) (*catalog.Exercise, bool)
}

func (o Options) withDefaults() Options {
	if o.LevelWidth <= 0 {
		o.LevelWidth = DefaultLevelWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	return o
}

// Node is a positioned node.
type Node struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
	Kind  string  `json:"kind,omitempty"`
	Depth int     `json:"depth"`
}

// Edge connects two positioned nodes.
type Edge struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Kind   string `json:"kind,omitempty"`
}

// Layout is the result of [Build]. Nodes and Edges are never nil.
type Layout struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the bounding box of all node positions, or the zero Rect
// for an empty layout.
func (l *Layout) Bounds() Rect {
	if len(l.Nodes) == 0 {
		return Rect{}
	}
	r := Rect{MinX: l.Nodes[0].X, MaxX: l.Nodes[0].X, MinY: l.Nodes[0].Y, MaxY: l.Nodes[0].Y}
	for _, n := range l.Nodes[1:] {
		r.MinX = min(r.MinX, n.X)
		r.MaxX = max(r.MaxX, n.X)
		r.MinY = min(r.MinY, n.Y)
		r.MaxY = max(r.MaxY, n.Y)
	}
	return r
}

// Node returns the positioned node with the given ID.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ExerciseNodeID is the layout ID of a fan-out leaf for one link.
func ExerciseNodeID(nodeID string, link catalog.ExerciseLink) string {
	return nodeID + "/" + link.ExerciseID + ":" + string(link.Role)
}

// =============================================================================
// Build
// =============================================================================

// item is one entry of the layout tree: an anatomy node or a fan-out leaf.
type item struct {
	id       string
	label    string
	kind     string
	edgeKind string
	children []*item

	index int // position in Layout.Nodes
}

type frame struct {
	item  *item
	depth int
	next  int
	sumY  float64
}

// Build lays out nodes. Duplicate or nil nodes are INVALID_INPUT, as is a
// fan-out leaf whose ID collides with another layout node; nodes on a parent
// cycle within the set are INTEGRITY_ERROR.
func Build(nodes []*catalog.Node, opts Options) (*Layout, error) {
	opts = opts.withDefaults()

	roots, count, anatomy, err := buildTree(nodes, opts)
	if err != nil {
		return nil, err
	}

	out := &Layout{Nodes: make([]Node, 0, count), Edges: []Edge{}}
	cursor := 0.0
	placed := 0

	for _, root := range roots {
		root.index = len(out.Nodes)
		out.Nodes = append(out.Nodes, Node{ID: root.id, Label: root.label, Kind: root.kind})
		stack := []*frame{{item: root}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]

			if top.next < len(top.item.children) {
				child := top.item.children[top.next]
				top.next++
				child.index = len(out.Nodes)
				out.Nodes = append(out.Nodes, Node{
					ID:    child.id,
					X:     float64(top.depth+1) * opts.LevelWidth,
					Label: child.label,
					Kind:  child.kind,
					Depth: top.depth + 1,
				})
				out.Edges = append(out.Edges, Edge{FromID: top.item.id, ToID: child.id, Kind: child.edgeKind})
				stack = append(stack, &frame{item: child, depth: top.depth + 1})
				continue
			}

			stack = stack[:len(stack)-1]
			placed++

			var y float64
			if len(top.item.children) == 0 {
				y = cursor
				cursor += opts.NodeHeight
			} else {
				y = top.sumY / float64(len(top.item.children))
			}
			out.Nodes[top.item.index].Y = y
			if len(stack) > 0 {
				stack[len(stack)-1].sumY += y
			}
		}
	}

	if placed != count {
		return nil, errors.Integrity("%d of %d layout nodes sit on a parent cycle", count-placed, count)
	}

	if opts.Connections != nil {
		out.Edges = append(out.Edges, connectionEdges(anatomy, opts.Connections)...)
	}
	return out, nil
}

// buildTree indexes the supplied nodes into layout items and returns the
// sorted roots, the total item count and the set of anatomy node IDs.
func buildTree(nodes []*catalog.Node, opts Options) ([]*item, int, map[string]bool, error) {
	byID := make(map[string]*catalog.Node, len(nodes))
	for _, n := range nodes {
		if n == nil {
			return nil, 0, nil, errors.New(errors.ErrCodeInvalidInput, "nil node in layout input")
		}
		if _, dup := byID[n.ID]; dup {
			return nil, 0, nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node %q in layout input", n.ID)
		}
		byID[n.ID] = n
	}

	var roots []*catalog.Node
	children := make(map[string][]*catalog.Node)
	for _, n := range nodes {
		if _, ok := byID[n.ParentID]; ok && !n.IsRoot() {
			children[n.ParentID] = insertSorted(children[n.ParentID], n)
		} else {
			roots = insertSorted(roots, n)
		}
	}

	items := make(map[string]*item, len(nodes))
	anatomy := make(map[string]bool, len(nodes))
	count := 0
	for _, n := range nodes {
		kind := string(n.Kind)
		if kind == "" {
			kind = KindNode
		}
		items[n.ID] = &item{id: n.ID, label: n.Name, kind: kind, edgeKind: EdgeHierarchy}
		anatomy[n.ID] = true
		count++
	}
	leaves := make(map[string]bool)
	for _, n := range nodes {
		it := items[n.ID]
		for _, child := range children[n.ID] {
			it.children = append(it.children, items[child.ID])
		}
		if !opts.IncludeExercises {
			continue
		}
		for _, l := range n.Links {
			label := l.ExerciseID
			if opts.Exercise != nil {
				if ex, ok := opts.Exercise(l.ExerciseID); ok && ex.Name != "" {
					label = ex.Name
				}
			}
			id := ExerciseNodeID(n.ID, l)
			if anatomy[id] || leaves[id] {
				return nil, 0, nil, errors.New(errors.ErrCodeInvalidInput, "exercise leaf %q collides with another layout node", id)
			}
			leaves[id] = true
			it.children = append(it.children, &item{
				id:       id,
				label:    label,
				kind:     KindExercise,
				edgeKind: EdgeExercise,
			})
			count++
		}
	}

	out := make([]*item, len(roots))
	for i, r := range roots {
		out[i] = items[r.ID]
	}
	return out, count, anatomy, nil
}

func insertSorted(nodes []*catalog.Node, n *catalog.Node) []*catalog.Node {
	i, _ := slices.BinarySearchFunc(nodes, n, catalog.CompareNodes)
	return slices.Insert(nodes, i, n)
}

// connectionEdges emits one edge per unordered pair whose ends are both
// anatomy nodes of the layout.
func connectionEdges(present map[string]bool, all map[string][]connect.Connection) []Edge {
	var edges []Edge
	for _, conn := range connect.Pairs(all) {
		if present[conn.FromNodeID] && present[conn.ToNodeID] {
			edges = append(edges, Edge{FromID: conn.FromNodeID, ToID: conn.ToNodeID, Kind: EdgeConnection})
		}
	}
	return edges
}
