// FILE: lixenwraith/dotenv/convenience.go
package dotenv

import (
	"fmt"
	"io"
)

// Quick builds a store from the env files of dir with the given keys required.
// This is the recommended way to load env configuration for most applications.
func Quick(dir string, required ...string) (*Store, error) {
	b := NewBuilder().WithWorkDir(dir)
	if len(required) > 0 {
		b.WithRequired(required...)
	}
	return b.Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(dir string, required ...string) *Store {
	s, err := Quick(dir, required...)
	if err != nil {
		panic(fmt.Sprintf("env initialization failed: %v", err))
	}
	return s
}

// Clone returns an independent store with the same entries, inline values,
// work directory, sources and collaborators. Rules are not copied; the clone
// starts with the default rules only.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewStore(
		WithLogger(s.logger),
		WithLister(s.lister),
		WithReader(s.reader),
		WithWriter(s.writer),
		WithCacheFile(s.cacheFile),
	)
	c.data = s.data.Clone()
	c.inline = s.inline.Clone()
	c.overlay = s.overlay.Clone()
	c.sources = append([]string(nil), s.sources...)
	c.dataFiles = append([]string(nil), s.dataFiles...)
	c.workDir = s.workDir
	c.cacheTTL = s.cacheTTL
	return c
}

// Dump writes the validated entries to w as dotenv text
func (s *Store) Dump(w io.Writer) error {
	return s.Export(w, FormatDotenv)
}
