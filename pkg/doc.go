// Package pkg provides the core libraries for Musclegraph.
//
// # Overview
//
// Musclegraph reads an anatomy catalog (regions, muscle groups and muscles
// arranged by parent pointers, plus exercises linked to nodes) and derives
// views from it. The pkg directory is organized into four areas:
//
//  1. Domain - [catalog], [hierarchy], [aggregate], [connect], [layout]
//  2. Infrastructure - [store], [cache], [observability], [errors]
//  3. Orchestration - [pipeline], used by the CLI and [api]
//  4. Presentation - [graph] documents and [render] outputs
//
// # Architecture
//
// The typical data flow:
//
//	file / SQLite / MongoDB catalog
//	         ↓
//	    [store] (decode, normalize metadata, optional integrity check)
//	         ↓
//	    [catalog] snapshot (immutable, fingerprinted)
//	         ↓
//	    [hierarchy] / [aggregate] / [connect] / [layout]
//	         ↓
//	    [pipeline] (memoized per fingerprint in [cache])
//	         ↓
//	    JSON / DOT / SVG / PNG / PDF
//
// # Quick Start
//
//	s, _ := store.Open(ctx, "catalog.yaml")
//	runner := pipeline.NewRunner(s, cache.NewMemoryCache(), nil, nil)
//	defer runner.Close()
//
//	forest, _ := runner.Forest(ctx)
//	res, _ := runner.Exercises(ctx, "lats", pipeline.Options{})
//	conns, _ := runner.ConnectionsFor(ctx, "pecs", pipeline.Options{})
//
//	opts := pipeline.Options{IncludeExercises: true, Format: pipeline.FormatSVG}
//	l, _ := runner.Layout(ctx, opts)
//	svg, _ := runner.Render(ctx, l, opts)
//
// # Main Packages
//
// [catalog] - The snapshot: nodes, exercises, links, ordering policies,
// integrity checks and the dataset fingerprint.
//
// [hierarchy] - Ancestry chains, region lookup and the annotated forest.
//
// [aggregate] - Deduplicated exercises of a node and its whole subtree.
//
// [connect] - Cross-region connections through shared exercises, with an
// indexed and a pairwise strategy that always agree.
//
// [layout] - Depth-by-column positioned layout with optional exercise
// fan-out and connection edges.
//
// [store] - Catalog backends (JSON/YAML/TOML files, SQLite, MongoDB) and file
// watching for live reload.
//
// [cache] - Memoization backends (file, memory, Redis) and fingerprint-scoped
// keys.
//
// [pipeline] - The runner every entry point goes through.
//
// [api] - HTTP JSON API.
//
// [render/nodelink] - Graphviz DOT with pinned positions and SVG rendering.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	MUSCLEGRAPH_TEST_MONGO_URL=mongodb://localhost:27017 go test ./pkg/store
//
// [catalog]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/catalog
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/hierarchy
// [aggregate]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/aggregate
// [connect]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/connect
// [layout]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/layout
// [store]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/api
// [graph]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/musclegraph/pkg/render/nodelink
package pkg
