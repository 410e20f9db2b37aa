package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share one
// backing store.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls back
// to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DescriptorKey generates a prefixed descriptor key.
func (k *ScopedKeyer) DescriptorKey(source, id string) string {
	return k.prefix + k.inner.DescriptorKey(source, id)
}

// ListKey generates a prefixed listing key.
func (k *ScopedKeyer) ListKey(source string) string {
	return k.prefix + k.inner.ListKey(source)
}
