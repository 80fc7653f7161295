// Package store loads catalog snapshots from persistent backends.
//
// # Overview
//
// A [Store] hands out immutable [catalog.Catalog] snapshots. Every backend
// decodes its records into a [graph.Catalog] document and converts it with
// [graph.ToCatalog], so all backends share one set of structural rules and
// one treatment of malformed list metadata: the field is dropped, a warning
// is logged and [observability.StoreHooks.OnMalformed] fires.
//
// # Backends
//
// [Open] picks a backend from the location string:
//
//   - sqlite://path/to/catalog.db: [SQLiteStore], read-only, one transaction per snapshot
//   - mongodb://host/db (or mongodb+srv://): [MongoStore], collections nodes, exercises, links
//   - anything else: [FileStore], a JSON, YAML or TOML document chosen by extension
//
// Add snapshot=true to a MongoDB URI to read all three collections in one
// snapshot session; see [MongoSnapshotParam].
//
// A document that cannot be decoded, or that breaks the structural rules,
// is reported as STORE_UNAVAILABLE with the decode error as its cause.
//
// # Strict Mode
//
// With [WithStrict], a snapshot whose parent hierarchy is corrupt is
// rejected with an INTEGRITY_ERROR at load time instead of when a derived
// view first walks it.
//
// # Watching
//
// [Watch] reports writes to a file catalog, and [Reloading] wraps a store so
// that the next [Store.Snapshot] after [Reloading.Invalidate] reloads.
package store
