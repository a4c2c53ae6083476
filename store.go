// FILE: lixenwraith/dotenv/store.go
package dotenv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Application environment key and its recognized values
const (
	AppEnvKey     = "APP_ENV"
	EnvDev        = "DEV"
	EnvProduction = "PRODUCTION"
	EnvStaging    = "STAGING"
	EnvLocal      = "LOCAL"
)

// DefaultCacheFile is the cache file name inside the work directory
const DefaultCacheFile = ".env.cache"

// Store is a configuration context: an ordered mapping loaded from env sources,
// guarded by validation rules evaluated lazily before any read.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	data      *Map
	inline    *Map     // Values set with SetInline, re-applied on reload
	overlay   *Map     // Values from Set, SetValue and Merge, re-applied on reload before inline
	sources   []string // Sources of the last ReadEnv
	dataFiles []string // Data sources read with ReadDataFile, re-read on reload
	workDir   string
	cacheFile string
	cacheTTL  time.Duration

	validator      *Validator
	checked        bool   // Cached validation result is current for data
	checkedVersion uint64 // Validator version of the cached result
	checkErr       error

	lister Lister
	reader Reader
	writer Writer
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the structured logger, the default discards output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLister sets the directory lister used for env directories
func WithLister(l Lister) Option {
	return func(s *Store) {
		if l != nil {
			s.lister = l
		}
	}
}

// WithReader sets the file reader used for env files, data sources and the cache
func WithReader(r Reader) Option {
	return func(s *Store) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithWriter sets the writer used for the cache file
func WithWriter(w Writer) Option {
	return func(s *Store) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithCacheFile sets the cache file name, relative to the work directory
func WithCacheFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.cacheFile = name
		}
	}
}

// NewStore creates an empty store with the default APP_ENV rule installed
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:      NewMap(),
		inline:    NewMap(),
		overlay:   NewMap(),
		cacheFile: DefaultCacheFile,
		validator: NewValidator(),
		lister:    OSLister{},
		reader:    OSReader{},
		writer:    AtomicWriter{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.installDefaultRules()
	return s
}

// installDefaultRules restricts APP_ENV to the known environments when present
func (s *Store) installDefaultRules() {
	s.validator.IfPresent(AppEnvKey).AllowedValues(EnvDev, EnvProduction, EnvStaging, EnvLocal)
}

// Validator returns the rule engine of the store
func (s *Store) Validator() *Validator {
	return s.validator
}

// Required selects keys that must be present
func (s *Store) Required(keys ...string) Selection {
	return s.validator.Required(keys...)
}

// IfPresent selects keys whose rules apply only when present
func (s *Store) IfPresent(keys ...string) Selection {
	return s.validator.IfPresent(keys...)
}

// Unrequire removes every rule of keys
func (s *Store) Unrequire(keys ...string) {
	s.validator.Unrequire(keys...)
}

// Set stores a Go value under key
func (s *Store) Set(key string, v any) {
	s.SetValue(key, ValueOf(v))
}

// SetValue stores v under key
func (s *Store) SetValue(key string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Set(key, v)
	s.overlay.Set(key, v)
	s.invalidate()
}

// SetInline stores a value that survives reloads of the env sources
func (s *Store) SetInline(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := ValueOf(v)
	s.inline.Set(key, value)
	s.data.Set(key, value)
	s.invalidate()
}

// Delete removes key
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Delete(key)
	s.inline.Delete(key)
	s.overlay.Delete(key)
	s.invalidate()
}

// Merge copies every entry of m into the store, entries of m win
func (s *Store) Merge(m *Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Merge(m)
	s.overlay.Merge(m)
	s.invalidate()
}

// Validate runs the rules against the current data, reusing a result still current
func (s *Store) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureValid()
}

// Get returns the value of key after validation. Absent keys yield Null.
func (s *Store) Get(key string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureValid(); err != nil {
		return Value{}, err
	}
	v, _ := s.data.Get(key)
	return v, nil
}

// Lookup returns the value of key, or fallback when key is absent or null
func (s *Store) Lookup(key string, fallback any) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureValid(); err != nil {
		return Value{}, err
	}
	if v, ok := s.data.Get(key); ok && !v.IsNull() {
		return v, nil
	}
	return ValueOf(fallback), nil
}

// All returns a copy of the validated mapping
func (s *Store) All() (*Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureValid(); err != nil {
		return nil, err
	}
	return s.data.Clone(), nil
}

// Len returns the number of entries without validating
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Len()
}

// ensureValid validates once per data change or rule change; callers hold mu
func (s *Store) ensureValid() error {
	version := s.validator.Version()
	if s.checked && s.checkedVersion == version {
		return s.checkErr
	}

	err := s.validator.ValidateAll(s.data.Clone())
	s.checked = true
	s.checkedVersion = version
	s.checkErr = err
	if err != nil {
		s.logger.Debug("env validation failed", "error", err)
	}
	return err
}

// invalidate marks the cached validation result stale; callers hold mu
func (s *Store) invalidate() {
	s.checked = false
	s.validator.invalidate()
}

// appEnv returns APP_ENV as text and whether it is set
func (s *Store) appEnv() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureValid(); err != nil {
		return "", false, err
	}
	v, ok := s.data.Get(AppEnvKey)
	if !ok {
		return "", false, nil
	}
	str, isString := v.AsString()
	return str, isString, nil
}

// IsProduction reports whether APP_ENV is PRODUCTION
func (s *Store) IsProduction() (bool, error) {
	env, _, err := s.appEnv()
	return env == EnvProduction, err
}

// IsStaging reports whether APP_ENV is STAGING
func (s *Store) IsStaging() (bool, error) {
	env, _, err := s.appEnv()
	return env == EnvStaging, err
}

// IsLocal reports whether APP_ENV is LOCAL
func (s *Store) IsLocal() (bool, error) {
	env, _, err := s.appEnv()
	return env == EnvLocal, err
}

// IsDev reports whether APP_ENV is DEV; an unset APP_ENV counts as DEV
func (s *Store) IsDev() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureValid(); err != nil {
		return false, err
	}
	v, ok := s.data.Get(AppEnvKey)
	if !ok {
		return true, nil
	}
	return v.Equal(String(EnvDev)), nil
}

// SetWorkDir sets the directory holding env files and the cache file
func (s *Store) SetWorkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidWorkDirectory, dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workDir = filepath.Clean(dir)
	return nil
}

// WorkDir returns the work directory, empty when unset
func (s *Store) WorkDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workDir
}

// Sources returns the sources of the last ReadEnv
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sources))
	copy(out, s.sources)
	return out
}

// DataFiles returns the data sources read with ReadDataFile
func (s *Store) DataFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.dataFiles)
}

// CachePath returns the cache file path, empty without a work directory
func (s *Store) CachePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cachePath()
}

func (s *Store) cachePath() string {
	if s.workDir == "" {
		return ""
	}
	return filepath.Join(s.workDir, s.cacheFile)
}

// Flush removes the cache file and returns the store to its initial state
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if path := s.cachePath(); path != "" {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("failed to remove env cache '%s': %w", path, rmErr)
		}
	}

	s.data = NewMap()
	s.inline = NewMap()
	s.overlay = NewMap()
	s.sources = nil
	s.dataFiles = nil
	s.workDir = ""
	s.cacheTTL = 0
	s.validator.Reset()
	s.installDefaultRules()
	s.invalidate()
	return err
}

// Debug writes the store state for troubleshooting
func (s *Store) Debug(w io.Writer) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fmt.Fprintf(w, "work dir: %q\n", s.workDir)
	fmt.Fprintf(w, "sources: %v\n", s.sources)
	fmt.Fprintf(w, "data files: %v\n", s.dataFiles)
	fmt.Fprintf(w, "validator: %s (version %d)\n", s.validator.State(), s.validator.Version())
	for _, key := range s.validator.Keys() {
		labels := make([]string, 0)
		for _, r := range s.validator.Rules(key) {
			labels = append(labels, r.Label())
		}
		fmt.Fprintf(w, "  rule %s: %v\n", key, labels)
	}
	for k, v := range s.data.All() {
		fmt.Fprintf(w, "%s = %#v\n", k, v)
	}
}
