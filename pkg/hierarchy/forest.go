package hierarchy

import (
	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
)

// TreeNode is one node of the forest returned by [BuildForest]. Children is
// never nil so that it serializes as an empty array.
type TreeNode struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Kind                catalog.Kind `json:"kind,omitempty"`
	DirectExerciseCount int          `json:"directExerciseCount"`
	TotalExerciseCount  int          `json:"totalExerciseCount"`
	Children            []*TreeNode  `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (t *TreeNode) IsLeaf() bool { return len(t.Children) == 0 }

// Find returns the node with the given ID in the subtree rooted at t.
func (t *TreeNode) Find(id string) (*TreeNode, bool) {
	stack := []*TreeNode{t}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id {
			return n, true
		}
		stack = append(stack, n.Children...)
	}
	return nil, false
}

type frame struct {
	node *catalog.Node
	tree *TreeNode
	next int // index of the next child to descend into
}

// BuildForest returns one tree per region root, roots and children ordered
// by [catalog.CompareNodes].
//
// Every catalog node must be reachable from a root. Nodes that are not (on
// a parent cycle, or below a missing parent) make the catalog corrupt and
// BuildForest returns an INTEGRITY_ERROR.
func BuildForest(c *catalog.Catalog) ([]*TreeNode, error) {
	roots := c.Roots()
	forest := make([]*TreeNode, 0, len(roots))
	built := 0

	for _, root := range roots {
		stack := []*frame{newFrame(root)}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			children := c.Children(top.node.ID)

			if top.next < len(children) {
				child := children[top.next]
				top.next++
				if len(stack) > c.Len() {
					return nil, errors.Integrity("parent cycle below node %q", root.ID)
				}
				stack = append(stack, newFrame(child))
				continue
			}

			// All children done: close the node.
			stack = stack[:len(stack)-1]
			built++
			top.tree.TotalExerciseCount = top.tree.DirectExerciseCount
			for _, child := range top.tree.Children {
				top.tree.TotalExerciseCount += child.TotalExerciseCount
			}
			if len(stack) == 0 {
				forest = append(forest, top.tree)
			} else {
				parent := stack[len(stack)-1].tree
				parent.Children = append(parent.Children, top.tree)
			}
		}
	}

	if built != c.Len() {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return nil, errors.Integrity("%d nodes are unreachable from any region root", c.Len()-built)
	}
	return forest, nil
}

func newFrame(n *catalog.Node) *frame {
	return &frame{
		node: n,
		tree: &TreeNode{
			ID:                  n.ID,
			Name:                n.Name,
			Kind:                n.Kind,
			DirectExerciseCount: n.DirectCount(),
			Children:            []*TreeNode{},
		},
	}
}

// Index maps every node ID in the forest to its tree node.
func Index(forest []*TreeNode) map[string]*TreeNode {
	index := make(map[string]*TreeNode)
	stack := append([]*TreeNode(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		index[n.ID] = n
		stack = append(stack, n.Children...)
	}
	return index
}
