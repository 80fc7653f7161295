package cache

// ScopedKeyer wraps a Keyer with a prefix so that several catalogs can
// share one backend (for example a Redis instance serving a SQLite and a
// Mongo catalog).
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "catalog:"+Hash([]byte(uri))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ForestKey generates a prefixed forest key.
func (k *ScopedKeyer) ForestKey(fingerprint string) string {
	return k.prefix + k.inner.ForestKey(fingerprint)
}

// ExercisesKey generates a prefixed aggregation key.
func (k *ScopedKeyer) ExercisesKey(fingerprint, nodeID string) string {
	return k.prefix + k.inner.ExercisesKey(fingerprint, nodeID)
}

// ConnectionsKey generates a prefixed connections key.
func (k *ScopedKeyer) ConnectionsKey(fingerprint string, opts ConnectionsKeyOpts) string {
	return k.prefix + k.inner.ConnectionsKey(fingerprint, opts)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(fingerprint, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
