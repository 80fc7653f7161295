// Package catalog provides the read-only snapshot of anatomy nodes,
// exercises and exercise links that every derived view is computed from.
//
// # Overview
//
// An anatomy catalog is a forest: each [Node] has at most one parent, and a
// node without a parent is a region root (Back, Chest, Shoulder...). Nodes
// link exercises under a [Role] (primary or secondary). The [Catalog] type
// indexes these records so that the hierarchy, aggregation, connection and
// layout packages can walk it deterministically.
//
// # Basic Usage
//
// Register exercises first, then nodes with their links:
//
//	c := catalog.New()
//	_ = c.AddExercise(catalog.Exercise{ID: "pullup", Name: "Pull-Up"})
//	_ = c.AddNode(catalog.Node{ID: "back", Name: "Back", Kind: catalog.KindRegion})
//	_ = c.AddNode(catalog.Node{ID: "lats", Name: "Lats", ParentID: "back"})
//	_ = c.Link("lats", "pullup", catalog.RolePrimary)
//
// # Ordering
//
// Traversal order is an explicit policy rather than an accident of map
// iteration:
//
//   - Siblings and roots: [CompareNodes] (name ascending, ordinal, then ID)
//   - Links within a node: primary before secondary, then exercise name,
//     then exercise ID
//   - [Catalog.Nodes] and [Catalog.Exercises]: ID ascending
//
// # Integrity
//
// AddNode accepts dangling parents and cycles so that a corrupt dataset can
// be loaded and reported rather than silently repaired. [Catalog.Problems]
// lists every violation and [Catalog.Validate] turns them into an
// INTEGRITY_ERROR from pkg/errors.
//
// # Malformed Metadata
//
// List-valued exercise metadata arrives as JSON text from some stores.
// [ParseList] and [NormalizeList] report malformed values so loaders can
// drop the field for that record while keeping the record itself.
//
// # Concurrency
//
// A Catalog must not be mutated concurrently. Once a loader returns it, the
// snapshot is read-only and safe to share between goroutines.
package catalog
