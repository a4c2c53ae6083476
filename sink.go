// FILE: lixenwraith/dotenv/sink.go
package dotenv

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Sink receives resolved entries, typically process environment state
type Sink interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
}

// OSEnv is the process environment
type OSEnv struct{}

// Lookup reports the process environment value of key
func (OSEnv) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// Set sets a process environment variable
func (OSEnv) Set(key, value string) error { return os.Setenv(key, value) }

// MapSink is an in-memory Sink, safe for concurrent use
type MapSink struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapSink creates a sink holding initial
func NewMapSink(initial map[string]string) *MapSink {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MapSink{values: values}
}

// Lookup returns the value of key
func (m *MapSink) Lookup(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key
func (m *MapSink) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// Values returns a copy of the sink contents
func (m *MapSink) Values() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Register validates the store and writes every entry to sink under its
// upper-cased key. Keys the sink already holds are skipped unless overwrite.
// It returns the number of entries written.
func (s *Store) Register(sink Sink, overwrite bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Len() == 0 {
		return 0, fmt.Errorf("%w: no env entries to register", ErrEmptySource)
	}
	if err := s.ensureValid(); err != nil {
		return 0, err
	}

	written := 0
	for key, v := range s.data.All() {
		key = strings.ToUpper(key)
		if !overwrite {
			if _, exists := sink.Lookup(key); exists {
				continue
			}
		}
		if err := sink.Set(key, envString(v)); err != nil {
			return written, fmt.Errorf("failed to register env key '%s': %w", key, err)
		}
		written++
	}
	s.logger.Debug("env registered", "written", written, "overwrite", overwrite)
	return written, nil
}
