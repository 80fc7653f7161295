// Package aggregate collects the exercises that act on a node and its whole
// sub-hierarchy.
//
// [Exercises] visits the node and its descendants in pre-order, children in
// [catalog.CompareNodes] order and links in [catalog.Catalog.CompareLinks]
// order. Each (exercise, role) pair is reported once, attributed to the node
// where the traversal first met it. Because the traversal order is fixed,
// the attribution is deterministic.
package aggregate

import (
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
)

// Exercise is one deduplicated (exercise, role) pair with its provenance.
type Exercise struct {
	ExerciseID   string       `json:"exerciseId"`
	Role         catalog.Role `json:"role"`
	SourceNodeID string       `json:"sourceNodeId"`

	// Exercise carries the catalog record for presentation. It is nil only
	// when the catalog no longer knows the exercise.
	Exercise *catalog.Exercise `json:"exercise,omitempty"`
}

// Key identifies an aggregated entry.
type Key struct {
	ExerciseID string
	Role       catalog.Role
}

// Key returns the dedup key of e.
func (e Exercise) Key() Key { return Key{ExerciseID: e.ExerciseID, Role: e.Role} }

// Source is a visited node that contributed at least one direct link.
type Source struct {
	NodeID          string `json:"nodeId"`
	Name            string `json:"name"`
	DirectLinkCount int    `json:"directLinkCount"`
}

// Result is the aggregation for one node. Both slices are in traversal
// order and never nil.
type Result struct {
	Exercises []Exercise `json:"exercises"`
	Sources   []Source   `json:"sources"`
}

// LinkCount returns the sum of DirectLinkCount over all sources, which is an
// upper bound on len(r.Exercises).
func (r *Result) LinkCount() int {
	total := 0
	for _, s := range r.Sources {
		total += s.DirectLinkCount
	}
	return total
}

// Exercises aggregates the exercises of id and its descendants.
//
// It returns NOT_FOUND for an unknown id and INTEGRITY_ERROR if the
// traversal re-enters a node, which only a parent cycle can cause.
func Exercises(c *catalog.Catalog, id string) (*Result, error) {
	start, ok := c.Node(id)
	if !ok {
		return nil, errors.NotFound("node %q", id)
	}

	result := &Result{Exercises: []Exercise{}, Sources: []Source{}}
	seen := make(map[Key]struct{})
	visited := make(map[string]struct{})

	stack := []*catalog.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := visited[n.ID]; dup {
			return nil, errors.Integrity("parent cycle through node %q", n.ID)
		}
		visited[n.ID] = struct{}{}

		if len(n.Links) > 0 {
			result.Sources = append(result.Sources, Source{
				NodeID:          n.ID,
				Name:            n.Name,
				DirectLinkCount: len(n.Links),
			})
		}
		for _, l := range n.Links {
			key := Key{ExerciseID: l.ExerciseID, Role: l.Role}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ex, _ := c.Exercise(l.ExerciseID)
			result.Exercises = append(result.Exercises, Exercise{
				ExerciseID:   l.ExerciseID,
				Role:         l.Role,
				SourceNodeID: n.ID,
				Exercise:     ex,
			})
		}

		// Push in reverse so the first child is visited next.
		children := c.Children(n.ID)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return result, nil
}
