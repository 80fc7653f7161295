package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	mgerrors "github.com/matzehuels/musclegraph/pkg/errors"
)

// ProblemKind classifies a hierarchy integrity problem.
type ProblemKind string

const (
	// ProblemDanglingParent marks a node whose ParentID does not resolve.
	ProblemDanglingParent ProblemKind = "dangling_parent"
	// ProblemCycle marks a set of nodes whose parent pointers form a cycle.
	ProblemCycle ProblemKind = "cycle"
)

// Problem describes one integrity violation in the parent hierarchy.
type Problem struct {
	Kind ProblemKind `json:"kind"`
	// NodeIDs lists the nodes involved, sorted. A dangling parent names the
	// child; a cycle names every node on it.
	NodeIDs []string `json:"nodeIds"`
	// ParentID is the unresolved parent for ProblemDanglingParent.
	ParentID string `json:"parentId,omitempty"`
}

func (p Problem) String() string {
	switch p.Kind {
	case ProblemDanglingParent:
		return fmt.Sprintf("node %q references missing parent %q", p.NodeIDs[0], p.ParentID)
	case ProblemCycle:
		return fmt.Sprintf("parent cycle through %s", strings.Join(p.NodeIDs, " -> "))
	}
	return string(p.Kind)
}

// Problems returns every integrity violation in the parent hierarchy:
// parents that do not resolve and parent cycles (including a node that is
// its own parent). Problems are sorted by kind, then by first node ID.
//
// Cycle detection builds a gonum directed graph of parent -> child edges
// and relies on topo.Sort reporting the unorderable components.
func (c *Catalog) Problems() []Problem {
	var problems []Problem

	ids := make(map[string]int64, len(c.nodes))
	nodes := c.Nodes()
	for i, n := range nodes {
		ids[n.ID] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for i := range nodes {
		g.AddNode(simple.Node(int64(i)))
	}

	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		parent, ok := ids[n.ParentID]
		switch {
		case !ok:
			problems = append(problems, Problem{
				Kind:     ProblemDanglingParent,
				NodeIDs:  []string{n.ID},
				ParentID: n.ParentID,
			})
		case n.ParentID == n.ID:
			// simple.DirectedGraph rejects self edges; report directly.
			problems = append(problems, Problem{Kind: ProblemCycle, NodeIDs: []string{n.ID}})
		default:
			g.SetEdge(simple.Edge{F: simple.Node(parent), T: simple.Node(ids[n.ID])})
		}
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			for _, component := range unorderable {
				cycle := make([]string, 0, len(component))
				for _, gn := range component {
					cycle = append(cycle, nodes[gn.ID()].ID)
				}
				slices.Sort(cycle)
				problems = append(problems, Problem{Kind: ProblemCycle, NodeIDs: cycle})
			}
		}
	}

	slices.SortFunc(problems, func(a, b Problem) int {
		if r := strings.Compare(string(a.Kind), string(b.Kind)); r != 0 {
			return r
		}
		return strings.Compare(a.NodeIDs[0], b.NodeIDs[0])
	})
	return problems
}

// Validate returns nil for a well-formed hierarchy, or an INTEGRITY_ERROR
// describing the first problem found by [Catalog.Problems].
func (c *Catalog) Validate() error {
	problems := c.Problems()
	if len(problems) == 0 {
		return nil
	}
	if len(problems) == 1 {
		return mgerrors.Integrity("%s", problems[0])
	}
	return mgerrors.Integrity("%s (and %d more)", problems[0], len(problems)-1)
}
