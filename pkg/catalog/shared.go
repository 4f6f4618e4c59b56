package catalog

import "sync"

// Shared builds a catalog on first use and hands the same instance to every
// caller afterwards. The load function runs at most once, even under
// concurrent access; its error is cached as well.
type Shared struct {
	once sync.Once
	load func() (*Catalog, error)
	cat  *Catalog
	err  error
}

// NewShared returns a Shared that obtains its catalog from load.
func NewShared(load func() (*Catalog, error)) *Shared {
	return &Shared{load: load}
}

// Get returns the catalog, loading it on the first call.
func (s *Shared) Get() (*Catalog, error) {
	s.once.Do(func() {
		s.cat, s.err = s.load()
	})
	return s.cat, s.err
}
