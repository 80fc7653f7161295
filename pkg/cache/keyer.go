package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys for derived views. Every key is scoped by the
// catalog fingerprint it was computed from.
type Keyer interface {
	ForestKey(fingerprint string) string
	ExercisesKey(fingerprint, nodeID string) string
	ConnectionsKey(fingerprint string, opts ConnectionsKeyOpts) string
	LayoutKey(fingerprint string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// ConnectionsKeyOpts are the inputs that change a connections result.
// The strategy is part of the key even though strategies agree, so a
// suspected discrepancy can be checked without flushing the cache.
type ConnectionsKeyOpts struct {
	Strategy string `json:"strategy"`
}

// LayoutKeyOpts are the inputs that change a layout.
type LayoutKeyOpts struct {
	NodeIDs          []string `json:"node_ids,omitempty"` // empty means the whole catalog
	LevelWidth       float64  `json:"level_width"`
	NodeHeight       float64  `json:"node_height"`
	IncludeExercises bool     `json:"include_exercises"`
	Connections      bool     `json:"connections"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale"`
	Detailed bool    `json:"detailed"`
}

// DefaultKeyer is the standard key scheme:
//
//	forest:<fp>
//	exercises:<fp>:<node>
//	connections:<sha256(fp, opts)>
//	layout:<sha256(fp, opts)>
//	artifact:<sha256(layoutHash, opts)>
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ForestKey returns the key of the forest view.
func (DefaultKeyer) ForestKey(fingerprint string) string {
	return "forest:" + fingerprint
}

// ExercisesKey returns the key of one node's aggregation.
func (DefaultKeyer) ExercisesKey(fingerprint, nodeID string) string {
	return "exercises:" + fingerprint + ":" + nodeID
}

// ConnectionsKey returns the key of the connection map.
func (DefaultKeyer) ConnectionsKey(fingerprint string, opts ConnectionsKeyOpts) string {
	return hashKey("connections", fingerprint, opts)
}

// LayoutKey returns the key of a layout.
func (DefaultKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return hashKey("layout", fingerprint, opts)
}

// ArtifactKey returns the key of a rendered layout.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Use full SHA-256 hash (64 hex chars / 256 bits) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
