// Package graph provides the serialization documents for catalogs and the
// views derived from them.
//
// This package defines the canonical wire format for musclegraph data, used
// for catalog files, API responses, cache entries and exports.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory
// snapshot and external formats:
//
//   - [Catalog]: the document a store reads (file, SQLite rows, Mongo
//     collections all convert through it)
//   - pkg/catalog.Catalog: the indexed in-memory snapshot
//   - [Forest], [Connections], [Layout]: derived views with the dataset
//     fingerprint they were computed from
//
// Use [ToCatalog] and [FromCatalog] to convert between the document and the
// snapshot. [ToCatalog] is the single point where raw records become a
// snapshot, so every store applies the same rules.
//
// # Catalog Documents
//
// Links may be nested under their node or listed flat with a nodeId:
//
//	{
//	  "exercises": [{"id": "pullup", "name": "Pull-Up", "equipment": ["bar"]}],
//	  "nodes": [
//	    {"id": "back", "name": "Back", "kind": "region"},
//	    {"id": "lats", "name": "Lats", "parentId": "back",
//	     "links": [{"exerciseId": "pullup", "role": "primary"}]}
//	  ],
//	  "links": [{"nodeId": "back", "exerciseId": "pullup", "role": "secondary"}]
//	}
//
// List-valued exercise metadata (equipment, tags) that does not decode to a
// list of strings is dropped for that exercise and reported as a [Warning].
// The exercise itself is kept.
//
// # Views
//
//	data, _ := graph.MarshalForest(graph.NewForest(fp, roots))
//	graph.WriteLayoutFile(doc, "layout.json")
//	doc, _ := graph.ReadConnectionsFile("connections.json")
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct values.
package graph
