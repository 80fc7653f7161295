// Package render turns computed layouts into images.
//
// The [nodelink] subpackage converts a layout into Graphviz DOT with every
// node pinned at its computed position and renders it to SVG. [ToPDF] and
// [ToPNG] convert that SVG with the external rsvg-convert tool (from
// librsvg).
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/musclegraph/pkg/render/nodelink
package render
