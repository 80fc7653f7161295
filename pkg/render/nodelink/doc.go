// Package nodelink renders anatomy layouts as node-link diagrams.
//
// # Usage
//
// Convert a computed layout to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Pinned Positions
//
// The coordinates come from pkg/layout, not from Graphviz. [ToDOT] selects
// the neato engine and writes every node with a pinned pos attribute
// ("x,y!" in inches, y flipped so the first leaf is at the top). Graphviz
// only routes edges and draws shapes.
//
// # Styling
//
//   - Hierarchy edges: solid arrows
//   - Exercise fan-out: grey ellipses on dotted edges
//   - Cross-region connections: dashed, undirected, blue
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package.
package nodelink
