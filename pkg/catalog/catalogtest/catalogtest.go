// Package catalogtest provides fixtures for tests that need a catalog.
package catalogtest

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/musclegraph/pkg/catalog"
)

// Builder assembles a catalog in tests. Node names default to their IDs and
// exercises are registered on first reference, so fixtures read like the
// hierarchy they describe:
//
//	c := catalogtest.New(t).
//		Node("Back", "").
//		Node("Lats", "Back", "PullUp").
//		Catalog()
type Builder struct {
	t testing.TB
	c *catalog.Catalog
}

// New returns an empty builder that fails t on any construction error.
func New(t testing.TB) *Builder {
	t.Helper()
	return &Builder{t: t, c: catalog.New()}
}

// Exercise registers an exercise named after its ID unless it already exists.
func (b *Builder) Exercise(id string) *Builder {
	b.t.Helper()
	if _, ok := b.c.Exercise(id); ok {
		return b
	}
	if err := b.c.AddExercise(catalog.Exercise{ID: id, Name: id}); err != nil {
		b.t.Fatalf("add exercise %s: %v", id, err)
	}
	return b
}

// Node adds a node named after its ID. Each link is "ExerciseID" (primary)
// or "ExerciseID:secondary".
func (b *Builder) Node(id, parent string, links ...string) *Builder {
	b.t.Helper()
	return b.NamedNode(id, id, parent, links...)
}

// NamedNode is Node with an explicit display name.
func (b *Builder) NamedNode(id, name, parent string, links ...string) *Builder {
	b.t.Helper()
	if err := b.c.AddNode(catalog.Node{ID: id, Name: name, ParentID: parent}); err != nil {
		b.t.Fatalf("add node %s: %v", id, err)
	}
	for _, ref := range links {
		exerciseID, role := ParseLink(ref)
		b.Exercise(exerciseID)
		if err := b.c.Link(id, exerciseID, role); err != nil {
			b.t.Fatalf("link %s -> %s: %v", id, ref, err)
		}
	}
	return b
}

// Catalog returns the assembled snapshot.
func (b *Builder) Catalog() *catalog.Catalog { return b.c }

// ParseLink splits "ExerciseID[:role]" into its parts; role defaults to primary.
func ParseLink(ref string) (string, catalog.Role) {
	id, role, found := strings.Cut(ref, ":")
	if !found {
		return id, catalog.RolePrimary
	}
	r, err := catalog.ParseRole(role)
	if err != nil {
		panic(fmt.Sprintf("catalogtest: bad role in %q", ref))
	}
	return id, r
}

// Scenario builds the shared Back/Chest/Shoulder fixture used across
// packages:
//
//	Back ── Lats ── LowerLats (PullUp)
//	     └─ Traps (PullUp, Shrug)
//	Chest ── Pecs (PullUp, BenchPress)
//	Shoulder (Press) ── FrontDelt (Press, BenchPress:secondary)
func Scenario(t testing.TB) *catalog.Catalog {
	t.Helper()
	return New(t).
		Node("Back", "").
		Node("Lats", "Back").
		Node("LowerLats", "Lats", "PullUp").
		Node("Traps", "Back", "PullUp", "Shrug").
		Node("Chest", "").
		Node("Pecs", "Chest", "PullUp", "BenchPress").
		Node("Shoulder", "", "Press").
		Node("FrontDelt", "Shoulder", "Press", "BenchPress:secondary").
		Catalog()
}

// =============================================================================
// Property-based generators
// =============================================================================

// names is deliberately small so generated siblings share names and
// exercise the ID tie-break.
var names = []string{"Alpha", "Beta", "Gamma", "alpha", "Delta", "Beta"}

// Forest generates random well-formed catalogs: every node's parent is an
// earlier node (or none), so the hierarchy is always acyclic.
func Forest() *rapid.Generator[*catalog.Catalog] {
	return rapid.Custom(func(t *rapid.T) *catalog.Catalog {
		c := catalog.New()

		exerciseCount := rapid.IntRange(1, 6).Draw(t, "exercises")
		for i := 0; i < exerciseCount; i++ {
			id := fmt.Sprintf("ex%d", i)
			_ = c.AddExercise(catalog.Exercise{ID: id, Name: rapid.SampledFrom(names).Draw(t, "exerciseName")})
		}

		nodeCount := rapid.IntRange(1, 24).Draw(t, "nodes")
		for i := 0; i < nodeCount; i++ {
			id := fmt.Sprintf("n%02d", i)
			parent := ""
			if i > 0 {
				if p := rapid.IntRange(-1, i-1).Draw(t, "parent"); p >= 0 {
					parent = fmt.Sprintf("n%02d", p)
				}
			}
			_ = c.AddNode(catalog.Node{ID: id, Name: rapid.SampledFrom(names).Draw(t, "name"), ParentID: parent})

			for e := 0; e < exerciseCount; e++ {
				exerciseID := fmt.Sprintf("ex%d", e)
				if rapid.IntRange(0, 3).Draw(t, "primary") == 0 {
					_ = c.Link(id, exerciseID, catalog.RolePrimary)
				}
				if rapid.IntRange(0, 5).Draw(t, "secondary") == 0 {
					_ = c.Link(id, exerciseID, catalog.RoleSecondary)
				}
			}
		}
		return c
	})
}
