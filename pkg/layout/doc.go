// Package layout computes deterministic 2-D coordinates for a node-link
// drawing of an anatomy hierarchy.
//
// # Algorithm
//
// [Build] places any subset of catalog nodes. A node is a root of the
// layout when its parent is not in the subset. Roots are processed in
// [catalog.CompareNodes] order with a single vertical cursor:
//
//   - x = depth * LevelWidth, depth 0 for layout roots
//   - a leaf takes the cursor as y, then advances it by NodeHeight
//   - an internal node takes the mean y of its direct children and does not
//     move the cursor
//
// Leaves therefore never share a row, and every parent is centered over its
// own children. The walk is post-order with an explicit stack.
//
// # Options
//
// [Options.IncludeExercises] adds each node's direct links as extra leaves
// after its anatomy children, so a node with links becomes internal and is
// centered over its exercises. [Options.Connections] adds one dashed
// "connection" edge per cross-region pair whose ends are both placed.
//
// # Output
//
// Nodes and edges come out in pre-order. [Layout.Bounds] returns the
// bounding box, which renderers use to size their canvas.
package layout
