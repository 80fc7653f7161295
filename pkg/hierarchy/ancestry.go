package hierarchy

import (
	"slices"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
)

// AncestryOf returns the chain from the root of id's region down to id
// itself. A root node yields a chain of length one.
func AncestryOf(c *catalog.Catalog, id string) ([]*catalog.Node, error) {
	n, ok := c.Node(id)
	if !ok {
		return nil, errors.NotFound("node %q", id)
	}

	chain := []*catalog.Node{n}
	for !n.IsRoot() {
		if len(chain) > c.Len() {
			return nil, errors.Integrity("parent cycle reached from node %q", id)
		}
		parent, ok := c.Node(n.ParentID)
		if !ok {
			return nil, errors.Integrity("node %q references missing parent %q", n.ID, n.ParentID)
		}
		chain = append(chain, parent)
		n = parent
	}

	slices.Reverse(chain)
	return chain, nil
}

// RegionOf returns the root of id's ancestry chain.
func RegionOf(c *catalog.Catalog, id string) (*catalog.Node, error) {
	chain, err := AncestryOf(c, id)
	if err != nil {
		return nil, err
	}
	return chain[0], nil
}

// Regions maps every node ID to the ID of its region root.
//
// Nodes are resolved in ID order. Each walk stops at the first node whose
// region is already known, so the whole catalog is resolved in O(N).
func Regions(c *catalog.Catalog) (map[string]string, error) {
	regions := make(map[string]string, c.Len())

	var path []*catalog.Node
	for _, start := range c.Nodes() {
		if _, done := regions[start.ID]; done {
			continue
		}

		path = path[:0]
		region := ""
		for n := start; ; {
			if r, done := regions[n.ID]; done {
				region = r
				break
			}
			path = append(path, n)
			if len(path) > c.Len() {
				return nil, errors.Integrity("parent cycle reached from node %q", start.ID)
			}
			if n.IsRoot() {
				region = n.ID
				break
			}
			parent, ok := c.Node(n.ParentID)
			if !ok {
				return nil, errors.Integrity("node %q references missing parent %q", n.ID, n.ParentID)
			}
			n = parent
		}

		for _, n := range path {
			regions[n.ID] = region
		}
	}
	return regions, nil
}
