package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when one shared backend serves several MCP clients or
// watched document roots that must not see each other's entries.
//
// Example usage:
//
//	// Workspace-specific keys for a client session
//	wsKeyer := NewScopedKeyer(NewDefaultKeyer(), "ws:abc123:")
//
//	// Global keys for a single-user CLI
//	globalKeyer := NewDefaultKeyer()
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

// ParseKey generates a prefixed key for parse stage caching.
func (k *ScopedKeyer) ParseKey(docHash string, opts ParseKeyOpts) string {
	return k.prefix + k.inner.ParseKey(docHash, opts)
}

// SceneKey generates a prefixed key for scene stage caching.
func (k *ScopedKeyer) SceneKey(docHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(docHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
