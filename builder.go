// FILE: lixenwraith/dotenv/builder.go
package dotenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// RuleFunc registers validation rules on a store's validator
type RuleFunc func(v *Validator)

// Builder provides a fluent interface for building stores
type Builder struct {
	ctx       context.Context
	opts      []Option
	workDir   string
	sources   []string
	dataFiles []string
	cacheTTL  time.Duration
	inline    *Map
	rules     []RuleFunc
	prefix    string
	args      []string
	err       error
}

// NewBuilder creates a new store builder
func NewBuilder() *Builder {
	return &Builder{
		ctx:    context.Background(),
		inline: NewMap(),
		args:   os.Args[1:],
		rules:  make([]RuleFunc, 0),
	}
}

// WithContext sets the context used while loading sources
func (b *Builder) WithContext(ctx context.Context) *Builder {
	if ctx != nil {
		b.ctx = ctx
	}
	return b
}

// WithWorkDir sets the directory holding env files and the cache file
func (b *Builder) WithWorkDir(dir string) *Builder {
	b.workDir = dir
	return b
}

// WithSources adds extra env directories and files, loaded after the work directory
func (b *Builder) WithSources(paths ...string) *Builder {
	b.sources = append(b.sources, paths...)
	return b
}

// WithDataFile adds a structured data source loaded after the env sources
func (b *Builder) WithDataFile(path string) *Builder {
	b.dataFiles = append(b.dataFiles, path)
	return b
}

// WithCacheTTL enables the env cache with the given lifetime, zero disables it
func (b *Builder) WithCacheTTL(ttl time.Duration) *Builder {
	if ttl < 0 {
		b.err = fmt.Errorf("invalid cache ttl %s", ttl)
		return b
	}
	b.cacheTTL = ttl
	return b
}

// WithLogger sets the store logger
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

// WithLister sets the directory lister
func (b *Builder) WithLister(l Lister) *Builder {
	b.opts = append(b.opts, WithLister(l))
	return b
}

// WithReader sets the file reader
func (b *Builder) WithReader(r Reader) *Builder {
	b.opts = append(b.opts, WithReader(r))
	return b
}

// WithWriter sets the cache writer
func (b *Builder) WithWriter(w Writer) *Builder {
	b.opts = append(b.opts, WithWriter(w))
	return b
}

// WithCacheFile sets the cache file name inside the work directory
func (b *Builder) WithCacheFile(name string) *Builder {
	b.opts = append(b.opts, WithCacheFile(name))
	return b
}

// WithInline sets a value that takes precedence over every env source
func (b *Builder) WithInline(key string, v any) *Builder {
	b.inline.Set(key, ValueOf(v))
	return b
}

// WithRules adds a rule registration function.
// Multiple functions run in the order they are added.
func (b *Builder) WithRules(fn RuleFunc) *Builder {
	if fn != nil {
		b.rules = append(b.rules, fn)
	}
	return b
}

// WithRequired marks keys as required
func (b *Builder) WithRequired(keys ...string) *Builder {
	return b.WithRules(func(v *Validator) { v.Required(keys...) })
}

// WithPrefix sets the key prefix used by BuildAndScan
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithArgs sets the command-line arguments inspected by directory discovery
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// Build creates the Store, loads its sources and validates it
func (b *Builder) Build() (*Store, error) {
	if b.err != nil {
		return nil, b.err
	}

	s := NewStore(b.opts...)
	if b.workDir != "" {
		if err := s.SetWorkDir(b.workDir); err != nil {
			return nil, err
		}
	}

	for k, v := range b.inline.All() {
		s.SetInline(k, v)
	}
	for _, fn := range b.rules {
		fn(s.Validator())
	}

	if b.workDir != "" || len(b.sources) > 0 {
		if err := s.ReadEnv(b.ctx, b.cacheTTL, b.sources...); err != nil {
			return nil, fmt.Errorf("failed to read env sources: %w", err)
		}
	}
	for _, path := range b.dataFiles {
		if err := s.ReadDataFile(path); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Store {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("env build failed: %v", err))
	}
	return s
}

// BuildAndScan builds and decodes the validated entries into target
func (b *Builder) BuildAndScan(target any) (*Store, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := s.Scan(b.prefix, target); err != nil {
		return nil, fmt.Errorf("failed to scan env into target: %w", err)
	}
	return s, nil
}
