// Package connect finds nodes in different body regions that share
// exercises.
//
// # Connections
//
// For every node n with direct exercise links, [Find] lists the nodes m in
// other regions (see [hierarchy.Regions]) whose direct links share at least
// one exercise with n. Role is ignored: an exercise linked as primary on one
// node and secondary on the other still counts as shared. Same-region nodes
// never connect, however many exercises they share.
//
// Every node of the catalog has a key in the result; nodes without links map
// to an empty slice.
//
// Each list is ordered by SharedExerciseCount descending, then target name,
// then target ID, so repeated calls on the same catalog are byte-identical.
// Connections are symmetric: if m appears under n with count k, n appears
// under m with count k.
//
// # Strategies
//
// Two strategies produce identical output:
//
//   - [Indexed] (default) builds an exercise -> nodes inverted index and
//     counts overlaps per candidate, O(N·E) plus the size of the output.
//   - [Pairwise] compares every pair of nodes, O(N²·E). It is kept as the
//     reference the index is tested against.
package connect
