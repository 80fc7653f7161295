// Package hierarchy resolves the parent structure of an anatomy catalog:
// ancestry chains, regions and the nested forest with exercise counts.
//
// # Ancestry and Regions
//
// [AncestryOf] walks parent pointers from a node up to its root and returns
// the chain root-first. The root of that chain is the node's region; two
// nodes are in the same region iff they share a root. [Regions] resolves the
// region of every node in one pass, reusing chains it has already walked.
//
// Every walk is bounded by the catalog size. A chain longer than the number
// of nodes can only be a parent cycle and is reported as an INTEGRITY_ERROR,
// as is a parent ID that does not resolve. An unknown start node is
// NOT_FOUND.
//
// # Forest
//
// [BuildForest] returns one [TreeNode] per region root. Children and roots
// follow [catalog.CompareNodes], and every node satisfies
//
//	TotalExerciseCount == DirectExerciseCount + Σ child.TotalExerciseCount
//
// The tree is built post-order with an explicit stack, so depth is limited
// by memory rather than the goroutine stack.
package hierarchy
