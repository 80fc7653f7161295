package catalog

import (
	"cmp"
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Catalog.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Catalog.AddNode] when a node with the
	// same ID already exists in the catalog.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidExerciseID is returned by [Catalog.AddExercise] when the
	// exercise ID is empty.
	ErrInvalidExerciseID = errors.New("exercise ID must not be empty")

	// ErrDuplicateExerciseID is returned by [Catalog.AddExercise] when an
	// exercise with the same ID is already registered.
	ErrDuplicateExerciseID = errors.New("duplicate exercise ID")

	// ErrUnknownNode is returned by [Catalog.Link] when the node does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownExercise is returned by [Catalog.Link] when the exercise has
	// not been registered with [Catalog.AddExercise].
	ErrUnknownExercise = errors.New("unknown exercise")

	// ErrDuplicateLink is returned by [Catalog.Link] when the node already
	// links the exercise under the same role.
	ErrDuplicateLink = errors.New("duplicate exercise link")

	// ErrInvalidRole is returned by [ParseRole] and [Catalog.Link] for roles
	// other than primary and secondary.
	ErrInvalidRole = errors.New("invalid exercise role")

	// ErrInvalidKind is returned by [Catalog.AddNode] for a non-empty kind
	// that is not one of the known kinds.
	ErrInvalidKind = errors.New("invalid node kind")
)

// Kind is an informational tag on a node. It never drives traversal.
type Kind string

const (
	KindRegion Kind = "region"
	KindGroup  Kind = "group"
	KindMuscle Kind = "muscle"
	KindPart   Kind = "part"
	KindTendon Kind = "tendon"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRegion, KindGroup, KindMuscle, KindPart, KindTendon:
		return true
	}
	return false
}

// Role qualifies how strongly an exercise is associated with a node.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// ParseRole normalizes s (case-insensitive, surrounding space ignored) into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePrimary:
		return RolePrimary, nil
	case RoleSecondary:
		return RoleSecondary, nil
	}
	return "", ErrInvalidRole
}

// rank orders primary before secondary.
func (r Role) rank() int {
	if r == RolePrimary {
		return 0
	}
	return 1
}

// Exercise is a catalog exercise. Only ID and Name matter to the derived
// views; the remaining fields are carried through for the presentation layer.
type Exercise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	MediaURL  string   `json:"mediaUrl,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ExerciseLink associates a node with one exercise under one role.
type ExerciseLink struct {
	ExerciseID string `json:"exerciseId"`
	Role       Role   `json:"role"`
}

// Node is an anatomy node. An empty ParentID marks a region root.
//
// Links holds the node's direct exercise links in link order
// (see [Catalog.Link]). It is never nil-sensitive: a node without links
// behaves as an empty collection.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     Kind           `json:"kind,omitempty"`
	ParentID string         `json:"parentId,omitempty"`
	Links    []ExerciseLink `json:"links,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// DirectCount returns the number of direct exercise links.
func (n *Node) DirectCount() int { return len(n.Links) }

// ExerciseIDs returns the set of exercise IDs linked to the node, ignoring role.
func (n *Node) ExerciseIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(n.Links))
	for _, l := range n.Links {
		ids[l.ExerciseID] = struct{}{}
	}
	return ids
}

// Catalog is a snapshot of anatomy nodes, exercises and their links.
//
// Children are indexed by parent ID and kept sorted by [CompareNodes], so
// every traversal over a Catalog is deterministic regardless of the order in
// which a store delivered the records.
//
// The zero value is not usable - use New. A Catalog is not safe for
// concurrent mutation, but once a loader has finished building it the
// snapshot is read-only and may be shared freely between goroutines.
type Catalog struct {
	nodes     map[string]*Node
	exercises map[string]*Exercise
	children  map[string][]*Node // parentID -> children, sorted by CompareNodes
	roots     []*Node            // sorted by CompareNodes
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		nodes:     make(map[string]*Node),
		exercises: make(map[string]*Exercise),
		children:  make(map[string][]*Node),
	}
}

// AddExercise registers an exercise. Exercises must be registered before
// any node links them.
func (c *Catalog) AddExercise(e Exercise) error {
	if e.ID == "" {
		return ErrInvalidExerciseID
	}
	if _, exists := c.exercises[e.ID]; exists {
		return ErrDuplicateExerciseID
	}
	ex := e
	c.exercises[ex.ID] = &ex
	return nil
}

// AddNode adds a node and indexes it under its parent.
//
// The parent does not have to exist yet, and AddNode does not reject
// dangling parents or cycles: a corrupt hierarchy is representable so that
// the derived-data operations can report it. Use [Catalog.Validate] to check.
//
// Links carried on n follow the rules of [Catalog.Link], so the exercises
// they reference must already be registered. A node whose links are
// rejected is not added.
func (c *Catalog) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := c.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Kind != "" && !n.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := c.checkLinks(n.Links); err != nil {
		return err
	}

	node := &n
	node.Links = slices.Clone(n.Links)
	slices.SortFunc(node.Links, c.CompareLinks)
	c.nodes[node.ID] = node

	if node.IsRoot() {
		c.roots = insertSorted(c.roots, node)
	} else {
		c.children[node.ParentID] = insertSorted(c.children[node.ParentID], node)
	}
	return nil
}

// checkLinks applies the [Catalog.Link] rules to a new node's links.
func (c *Catalog) checkLinks(links []ExerciseLink) error {
	seen := make(map[ExerciseLink]bool, len(links))
	for _, l := range links {
		if _, ok := c.exercises[l.ExerciseID]; !ok {
			return ErrUnknownExercise
		}
		if l.Role != RolePrimary && l.Role != RoleSecondary {
			return ErrInvalidRole
		}
		if seen[l] {
			return ErrDuplicateLink
		}
		seen[l] = true
	}
	return nil
}

// Link attaches an exercise to a node under a role. Links are kept in link
// order: primary before secondary, then by exercise name, then exercise ID.
func (c *Catalog) Link(nodeID, exerciseID string, role Role) error {
	node, ok := c.nodes[nodeID]
	if !ok {
		return ErrUnknownNode
	}
	if _, ok := c.exercises[exerciseID]; !ok {
		return ErrUnknownExercise
	}
	if role != RolePrimary && role != RoleSecondary {
		return ErrInvalidRole
	}

	link := ExerciseLink{ExerciseID: exerciseID, Role: role}
	i, found := slices.BinarySearchFunc(node.Links, link, c.CompareLinks)
	if found {
		return ErrDuplicateLink
	}
	node.Links = slices.Insert(node.Links, i, link)
	return nil
}

// Len returns the number of nodes.
func (c *Catalog) Len() int { return len(c.nodes) }

// ExerciseCount returns the number of registered exercises.
func (c *Catalog) ExerciseCount() int { return len(c.exercises) }

// LinkCount returns the total number of exercise links across all nodes.
func (c *Catalog) LinkCount() int {
	total := 0
	for _, n := range c.nodes {
		total += len(n.Links)
	}
	return total
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the snapshot and must not be modified.
func (c *Catalog) Node(id string) (*Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Exercise returns the exercise with the given ID and true, or nil and false.
func (c *Catalog) Exercise(id string) (*Exercise, bool) {
	e, ok := c.exercises[id]
	return e, ok
}

// Children returns the children of id sorted by [CompareNodes].
// The returned slice is a read-only view. Returns nil for leaves and
// unknown IDs.
func (c *Catalog) Children(id string) []*Node { return c.children[id] }

// Roots returns nodes without a parent sorted by [CompareNodes].
func (c *Catalog) Roots() []*Node { return c.roots }

// Nodes returns all nodes sorted by ID.
func (c *Catalog) Nodes() []*Node {
	nodes := make([]*Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.ID, b.ID) })
	return nodes
}

// Exercises returns all exercises sorted by ID.
func (c *Catalog) Exercises() []*Exercise {
	out := make([]*Exercise, 0, len(c.exercises))
	for _, e := range c.exercises {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Exercise) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Filter returns the nodes for which keep returns true, sorted by ID.
// It is the usual way to hand a subset to the layout.
func (c *Catalog) Filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range c.Nodes() {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// =============================================================================
// Ordering
// =============================================================================

// CompareNodes is the sibling order used by every traversal: name ascending
// by ordinal (case-sensitive, byte-wise) comparison, ties broken by ID.
func CompareNodes(a, b *Node) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func insertSorted(nodes []*Node, n *Node) []*Node {
	i, _ := slices.BinarySearchFunc(nodes, n, CompareNodes)
	return slices.Insert(nodes, i, n)
}

// CompareLinks is the link order policy: primary before secondary, then
// exercise name (ordinal), then exercise ID.
func (c *Catalog) CompareLinks(a, b ExerciseLink) int {
	if r := cmp.Compare(a.Role.rank(), b.Role.rank()); r != 0 {
		return r
	}
	if r := strings.Compare(c.exerciseName(a.ExerciseID), c.exerciseName(b.ExerciseID)); r != 0 {
		return r
	}
	return strings.Compare(a.ExerciseID, b.ExerciseID)
}

func (c *Catalog) exerciseName(id string) string {
	if e, ok := c.exercises[id]; ok {
		return e.Name
	}
	return ""
}
