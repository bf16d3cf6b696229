package cache

// ScopedKeyer wraps a Keyer with a prefix so that separate collections can
// share one cache directory without key collisions.
//
// Example usage:
//
//	// Collection-specific keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mouse-cortex:")
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

// ParseKey generates a prefixed key for a parsed morphology document.
func (k *ScopedKeyer) ParseKey(sourceHash string, opts ParseKeyOpts) string {
	return k.prefix + k.inner.ParseKey(sourceHash, opts)
}

// RenderKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(docHash, opts)
}
