package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

// Fingerprint returns a deterministic SHA-256 hex digest of the catalog's
// content. Two snapshots with the same nodes, exercises and links produce the
// same fingerprint regardless of load order, so it serves as the dataset
// version for memoizing derived views.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()

	for _, e := range c.Exercises() {
		writeRecord(h, "exercise", e.ID, e.Name, e.Type, e.MediaURL,
			strings.Join(e.Equipment, "\x1f"), strings.Join(e.Tags, "\x1f"))
	}
	for _, n := range c.Nodes() {
		writeRecord(h, "node", n.ID, n.Name, string(n.Kind), n.ParentID)
		for _, l := range n.Links {
			writeRecord(h, "link", l.ExerciseID, string(l.Role))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(w io.Writer, fields ...string) {
	for _, f := range fields {
		io.WriteString(w, f)
		io.WriteString(w, "\x00")
	}
	io.WriteString(w, "\n")
}
