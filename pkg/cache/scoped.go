package cache

// ScopedKeyer wraps a Keyer with a prefix so that callers sharing one store
// get separate namespaces, e.g. the API server and the CLI on one Redis.
//
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
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

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}

// ReportKey generates a prefixed report key.
func (k *ScopedKeyer) ReportKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ReportKey(inputHash, opts)
}
