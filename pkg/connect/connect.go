package connect

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/hierarchy"
)

// Connection links a node to a node in another region.
type Connection struct {
	FromNodeID          string `json:"fromNodeId"`
	ToNodeID            string `json:"toNodeId"`
	ToRegionID          string `json:"toRegionId"`
	SharedExerciseCount int    `json:"sharedExerciseCount"`
	ToNodeName          string `json:"toNodeName,omitempty"`
}

// Strategy selects how overlaps are counted.
type Strategy int

const (
	// Indexed counts overlaps through an exercise -> nodes index.
	Indexed Strategy = iota
	// Pairwise compares every pair of nodes.
	Pairwise
)

func (s Strategy) String() string {
	switch s {
	case Indexed:
		return "indexed"
	case Pairwise:
		return "pairwise"
	}
	return "unknown"
}

// ParseStrategy parses "indexed" or "pairwise".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "indexed":
		return Indexed, nil
	case "pairwise":
		return Pairwise, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown connection strategy %q", s)
}

// Option configures [Find] and [For].
type Option func(*options)

type options struct {
	strategy Strategy
}

// WithStrategy selects the counting strategy. The default is [Indexed].
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// Find returns the ranked cross-region connections of every node.
//
// It fails with INTEGRITY_ERROR when regions cannot be resolved (parent
// cycle or missing parent).
func Find(c *catalog.Catalog, opts ...Option) (map[string][]Connection, error) {
	o := applyOptions(opts)

	regions, err := hierarchy.Regions(c)
	if err != nil {
		return nil, err
	}

	nodes := c.Nodes()
	result := make(map[string][]Connection, len(nodes))

	var count counter
	if o.strategy == Pairwise {
		count = pairwise(nodes)
	} else {
		count = indexed(nodes)
	}

	for _, n := range nodes {
		result[n.ID] = rank(c, n, regions, count(n))
	}
	return result, nil
}

// For returns the ranked cross-region connections of a single node. It
// returns NOT_FOUND for an unknown id.
func For(c *catalog.Catalog, id string, opts ...Option) ([]Connection, error) {
	o := applyOptions(opts)

	n, ok := c.Node(id)
	if !ok {
		return nil, errors.NotFound("node %q", id)
	}
	regions, err := hierarchy.Regions(c)
	if err != nil {
		return nil, err
	}

	nodes := c.Nodes()
	var count counter
	if o.strategy == Pairwise {
		count = pairwise(nodes)
	} else {
		count = indexed(nodes)
	}
	return rank(c, n, regions, count(n)), nil
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// counter returns, for one node, the number of exercises it shares with
// every other node that shares at least one. The node itself may appear.
type counter func(n *catalog.Node) map[string]int

func pairwise(nodes []*catalog.Node) counter {
	return func(n *catalog.Node) map[string]int {
		shared := make(map[string]int)
		if len(n.Links) == 0 {
			return shared
		}
		mine := n.ExerciseIDs()
		for _, m := range nodes {
			if m == n || len(m.Links) == 0 {
				continue
			}
			k := 0
			for id := range m.ExerciseIDs() {
				if _, ok := mine[id]; ok {
					k++
				}
			}
			if k > 0 {
				shared[m.ID] = k
			}
		}
		return shared
	}
}

func indexed(nodes []*catalog.Node) counter {
	byExercise := make(map[string][]string)
	for _, n := range nodes {
		for id := range n.ExerciseIDs() {
			byExercise[id] = append(byExercise[id], n.ID)
		}
	}

	return func(n *catalog.Node) map[string]int {
		shared := make(map[string]int)
		for id := range n.ExerciseIDs() {
			for _, other := range byExercise[id] {
				shared[other]++
			}
		}
		return shared
	}
}

// rank drops same-region candidates and orders the rest by shared count
// descending, then target name, then target ID.
func rank(c *catalog.Catalog, n *catalog.Node, regions map[string]string, shared map[string]int) []Connection {
	region := regions[n.ID]
	conns := []Connection{}
	for id, k := range shared {
		if regions[id] == region {
			continue
		}
		target, _ := c.Node(id)
		conns = append(conns, Connection{
			FromNodeID:          n.ID,
			ToNodeID:            id,
			ToRegionID:          regions[id],
			SharedExerciseCount: k,
			ToNodeName:          target.Name,
		})
	}

	slices.SortFunc(conns, Compare)
	return conns
}

// Compare is the ranking order of a connection list.
func Compare(a, b Connection) int {
	if r := cmp.Compare(b.SharedExerciseCount, a.SharedExerciseCount); r != 0 {
		return r
	}
	if r := strings.Compare(a.ToNodeName, b.ToNodeName); r != 0 {
		return r
	}
	return strings.Compare(a.ToNodeID, b.ToNodeID)
}

// Pairs returns each connected unordered pair once, as the connection from
// the node with the smaller ID. Pairs are sorted by that ID, then by rank.
func Pairs(all map[string][]Connection) []Connection {
	var out []Connection
	for from, conns := range all {
		for _, conn := range conns {
			if from < conn.ToNodeID {
				out = append(out, conn)
			}
		}
	}
	slices.SortFunc(out, func(a, b Connection) int {
		if r := strings.Compare(a.FromNodeID, b.FromNodeID); r != 0 {
			return r
		}
		return Compare(a, b)
	})
	return out
}
