package graph

import (
	"fmt"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
)

// =============================================================================
// Catalog - Source Document
// =============================================================================

// Catalog is the canonical document form of a catalog snapshot.
type Catalog struct {
	Exercises []Exercise `json:"exercises" yaml:"exercises" toml:"exercises" bson:"exercises"`
	Nodes     []Node     `json:"nodes" yaml:"nodes" toml:"nodes" bson:"nodes"`
	Links     []Link     `json:"links,omitempty" yaml:"links,omitempty" toml:"links,omitempty" bson:"links,omitempty"`
}

// Exercise is an exercise record. Equipment and Tags hold whatever the
// decoder produced and are normalized by [ToCatalog].
type Exercise struct {
	ID        string `json:"id" yaml:"id" toml:"id" bson:"_id"`
	Name      string `json:"name" yaml:"name" toml:"name" bson:"name"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" bson:"type,omitempty"`
	MediaURL  string `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty" toml:"mediaUrl,omitempty" bson:"mediaUrl,omitempty"`
	Equipment any    `json:"equipment,omitempty" yaml:"equipment,omitempty" toml:"equipment,omitempty" bson:"equipment,omitempty"`
	Tags      any    `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty" bson:"tags,omitempty"`
}

// Node is an anatomy node record.
type Node struct {
	ID       string `json:"id" yaml:"id" toml:"id" bson:"_id"`
	Name     string `json:"name" yaml:"name" toml:"name" bson:"name"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty" bson:"kind,omitempty"`
	ParentID string `json:"parentId,omitempty" yaml:"parentId,omitempty" toml:"parentId,omitempty" bson:"parentId,omitempty"`
	Links    []Link `json:"links,omitempty" yaml:"links,omitempty" toml:"links,omitempty" bson:"links,omitempty"`
}

// Link is an exercise link. NodeID is required for flat links and ignored
// for links nested under a node. An empty Role means primary.
type Link struct {
	NodeID     string `json:"nodeId,omitempty" yaml:"nodeId,omitempty" toml:"nodeId,omitempty" bson:"nodeId,omitempty"`
	ExerciseID string `json:"exerciseId" yaml:"exerciseId" toml:"exerciseId" bson:"exerciseId"`
	Role       string `json:"role,omitempty" yaml:"role,omitempty" toml:"role,omitempty" bson:"role,omitempty"`
}

// Warning reports auxiliary data that was dropped during conversion.
type Warning struct {
	ExerciseID string
	Field      string
}

func (w Warning) String() string {
	return fmt.Sprintf("exercise %q: malformed %s ignored", w.ExerciseID, w.Field)
}

// =============================================================================
// Document ↔ Snapshot Conversion
// =============================================================================

// ToCatalog converts a document into a snapshot.
//
// Structural problems (empty or duplicate IDs, links to unknown nodes or
// exercises, unknown roles) are INVALID_FORMAT errors. Malformed list
// metadata is not: the field is dropped and a [Warning] returned. ToCatalog
// does not check the parent hierarchy; call [catalog.Catalog.Validate].
func ToCatalog(doc Catalog) (*catalog.Catalog, []Warning, error) {
	c := catalog.New()
	var warnings []Warning

	for _, e := range doc.Exercises {
		ex := catalog.Exercise{ID: e.ID, Name: e.Name, Type: e.Type, MediaURL: e.MediaURL}

		var ok bool
		if ex.Equipment, ok = catalog.NormalizeList(e.Equipment); !ok {
			warnings = append(warnings, Warning{ExerciseID: e.ID, Field: "equipment"})
		}
		if ex.Tags, ok = catalog.NormalizeList(e.Tags); !ok {
			warnings = append(warnings, Warning{ExerciseID: e.ID, Field: "tags"})
		}

		if err := c.AddExercise(ex); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "exercise %q", e.ID)
		}
	}

	for _, n := range doc.Nodes {
		node := catalog.Node{ID: n.ID, Name: n.Name, Kind: catalog.Kind(n.Kind), ParentID: n.ParentID}
		if err := c.AddNode(node); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %q", n.ID)
		}
		for _, l := range n.Links {
			if err := link(c, n.ID, l); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, l := range doc.Links {
		if err := link(c, l.NodeID, l); err != nil {
			return nil, nil, err
		}
	}

	return c, warnings, nil
}

func link(c *catalog.Catalog, nodeID string, l Link) error {
	role := catalog.RolePrimary
	if l.Role != "" {
		var err error
		if role, err = catalog.ParseRole(l.Role); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "link %s -> %s: role %q", nodeID, l.ExerciseID, l.Role)
		}
	}
	if err := c.Link(nodeID, l.ExerciseID, role); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "link %s -> %s", nodeID, l.ExerciseID)
	}
	return nil
}

// FromCatalog converts a snapshot into a document. Exercises and nodes are
// sorted by ID and links are nested under their node in link order, so the
// output is deterministic.
func FromCatalog(c *catalog.Catalog) Catalog {
	exercises := c.Exercises()
	nodes := c.Nodes()
	doc := Catalog{
		Exercises: make([]Exercise, len(exercises)),
		Nodes:     make([]Node, len(nodes)),
	}

	for i, e := range exercises {
		doc.Exercises[i] = Exercise{ID: e.ID, Name: e.Name, Type: e.Type, MediaURL: e.MediaURL}
		if len(e.Equipment) > 0 {
			doc.Exercises[i].Equipment = e.Equipment
		}
		if len(e.Tags) > 0 {
			doc.Exercises[i].Tags = e.Tags
		}
	}

	for i, n := range nodes {
		out := Node{ID: n.ID, Name: n.Name, Kind: string(n.Kind), ParentID: n.ParentID}
		for _, l := range n.Links {
			out.Links = append(out.Links, Link{ExerciseID: l.ExerciseID, Role: string(l.Role)})
		}
		doc.Nodes[i] = out
	}
	return doc
}
