// FILE: lixenwraith/dotenv/loader.go
package dotenv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// EnvFilePattern selects the env files of a directory source
const EnvFilePattern = "*.env"

// Lister enumerates the files of a directory matching a glob pattern
type Lister interface {
	List(dir, pattern string) ([]string, error)
}

// Reader returns the full contents of a file
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// Writer replaces the contents of a file
type Writer interface {
	WriteFile(path string, data []byte) error
}

// OSLister lists directory entries with doublestar patterns, sorted by name
type OSLister struct{}

// List returns the regular files of dir matching pattern, relative to dir
func (OSLister) List(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list env directory '%s': %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("unable to list env directory '%s': not a directory", dir)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid env file pattern '%s': %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, name := range matches {
		if fi, err := fs.Stat(fsys, name); err == nil && fi.Mode().IsRegular() {
			files = append(files, name)
		}
	}
	slices.Sort(files)
	return files, nil
}

// OSReader reads files from the local filesystem
type OSReader struct{}

// ReadFile reads path, failing with ErrFileNotFound if it is not a regular, readable file
func (OSReader) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}
	return data, nil
}

// AtomicWriter replaces files through a synced temporary file and a rename
type AtomicWriter struct{}

// WriteFile atomically replaces path with data
func (AtomicWriter) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// loadPlan is the I/O configuration captured from a store before loading unlocked
type loadPlan struct {
	sources   []string
	cachePath string
	cacheTTL  time.Duration
	lister    Lister
	reader    Reader
	writer    Writer
	dataFiles []string
	overlay   *Map
	inline    *Map
}

// ReadEnv loads the work directory and extra sources into the store.
// Directories contribute their *.env files in name order; files are parsed as
// dotenv text, or as data sources for toml, json, yaml and yml extensions.
// Later sources overwrite earlier keys and inline values win over all sources.
// Missing sources are skipped. With cacheTTL > 0 a cache younger than cacheTTL
// replaces the sources, and a fresh load is written back to the cache.
func (s *Store) ReadEnv(ctx context.Context, cacheTTL time.Duration, extra ...string) error {
	s.mu.Lock()
	s.sources = s.resolveSources(extra)
	s.cacheTTL = cacheTTL
	plan := s.plan()
	s.mu.Unlock()

	loaded, err := s.load(ctx, plan)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Merge(loaded)
	s.data.Merge(s.inline)
	s.supersede(loaded)
	s.invalidate()
	return nil
}

// reload rebuilds the data from the last sources, bypassing the cache.
// Data files are re-read after the sources, then Set and Merge values and
// inline values are re-applied in that order.
func (s *Store) reload(ctx context.Context) (*Map, *Map, error) {
	s.mu.RLock()
	plan := s.plan()
	s.mu.RUnlock()
	plan.cacheTTL = 0

	loaded, err := s.load(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	snapshot := loaded.Clone()
	snapshot.Merge(plan.inline)

	for _, path := range plan.dataFiles {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		m, _, err := readDataSource(plan.reader, path)
		switch {
		case errors.Is(err, ErrFileNotFound):
			s.logger.Debug("data source missing, skipped", "path", path)
			continue
		case err != nil:
			return nil, nil, err
		}
		loaded.Merge(m)
	}
	loaded.Merge(plan.overlay)
	loaded.Merge(plan.inline)

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.data
	s.data = loaded
	s.invalidate()
	if path := s.cachePath(); path != "" && s.cacheTTL > 0 {
		s.writeCache(path, s.sources, snapshot, s.writer)
	}
	return previous, loaded.Clone(), nil
}

// supersede drops the Set and Merge values that a later load replaced; callers hold mu
func (s *Store) supersede(loaded *Map) {
	for k := range loaded.All() {
		s.overlay.Delete(k)
	}
}

// plan captures the load configuration; callers hold mu
func (s *Store) plan() loadPlan {
	return loadPlan{
		sources:   slices.Clone(s.sources),
		cachePath: s.cachePath(),
		cacheTTL:  s.cacheTTL,
		lister:    s.lister,
		reader:    s.reader,
		writer:    s.writer,
		dataFiles: slices.Clone(s.dataFiles),
		overlay:   s.overlay.Clone(),
		inline:    s.inline.Clone(),
	}
}

// resolveSources prepends the work directory and anchors relative extras to it; callers hold mu
func (s *Store) resolveSources(extra []string) []string {
	sources := make([]string, 0, len(extra)+1)
	if s.workDir != "" {
		sources = append(sources, s.workDir)
	}
	for _, src := range extra {
		if src == "" {
			continue
		}
		if !filepath.IsAbs(src) && s.workDir != "" {
			if _, err := os.Stat(src); err != nil {
				src = filepath.Join(s.workDir, src)
			}
		}
		sources = append(sources, src)
	}
	return sources
}

// load reads the cache or the sources of plan
func (s *Store) load(ctx context.Context, plan loadPlan) (*Map, error) {
	if plan.cacheTTL > 0 && plan.cachePath != "" {
		if cached, ok := s.readCache(plan); ok {
			return cached, nil
		}
	}

	loaded := NewMap()
	for _, src := range plan.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(src)
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.logger.Debug("env source missing, skipped", "source", src)
			continue
		case err != nil:
			return nil, fmt.Errorf("unable to verify env source '%s': %w", src, err)
		case info.IsDir():
			err = s.loadDir(ctx, plan, src, loaded)
		default:
			err = s.loadSourceFile(plan, src, loaded)
		}
		if err != nil {
			return nil, err
		}
	}

	if plan.cacheTTL > 0 && plan.cachePath != "" {
		snapshot := loaded.Clone()
		snapshot.Merge(plan.inline)
		s.writeCache(plan.cachePath, plan.sources, snapshot, plan.writer)
	}
	return loaded, nil
}

// loadDir merges every env file of dir into into
func (s *Store) loadDir(ctx context.Context, plan loadPlan, dir string, into *Map) error {
	files, err := plan.lister.List(dir, EnvFilePattern)
	if err != nil {
		return err
	}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.loadSourceFile(plan, filepath.Join(dir, name), into); err != nil {
			return err
		}
	}
	return nil
}

// loadSourceFile merges one dotenv file or data source into into
func (s *Store) loadSourceFile(plan loadPlan, path string, into *Map) error {
	data, err := plan.reader.ReadFile(path)
	if err != nil {
		return err
	}

	if format := detectFileFormat(path); format != "" {
		m, err := decodeDataSource(data, format)
		if err != nil {
			return fmt.Errorf("failed to load data source '%s': %w", path, err)
		}
		if m.Len() == 0 {
			return fmt.Errorf("%w: %s", ErrEmptySource, path)
		}
		into.Merge(m)
		s.logger.Debug("data source loaded", "path", path, "format", format, "keys", m.Len())
		return nil
	}

	m := ParseBytes(data)
	into.Merge(m)
	s.logger.Debug("env file loaded", "path", path, "keys", m.Len())
	return nil
}

// ReadDataFile merges a structured data source into the store.
// Relative paths not found as given are resolved against the work directory.
// Nested tables are flattened with '_' separators. The file is re-read when
// the store reloads.
func (s *Store) ReadDataFile(path string) error {
	s.mu.RLock()
	workDir, reader := s.workDir, s.reader
	s.mu.RUnlock()

	if _, err := os.Stat(path); err != nil && workDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	m, format, err := readDataSource(reader, path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Merge(m)
	s.data.Merge(s.inline)
	s.supersede(m)
	if !slices.Contains(s.dataFiles, path) {
		s.dataFiles = append(s.dataFiles, path)
	}
	s.invalidate()
	s.logger.Debug("data source loaded", "path", path, "format", format, "keys", m.Len())
	return nil
}

// readDataSource reads and decodes the data source at path, detecting its format
func readDataSource(reader Reader, path string) (*Map, string, error) {
	data, err := reader.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
	}
	m, err := decodeDataSource(data, format)
	if err != nil {
		return nil, format, fmt.Errorf("failed to load data source '%s': %w", path, err)
	}
	if m.Len() == 0 {
		return nil, format, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	return m, format, nil
}

// decodeDataSource decodes a toml, json or yaml document into a flat ordered mapping
func decodeDataSource(data []byte, format string) (*Map, error) {
	out := NewMap()
	switch format {
	case "toml":
		var doc map[string]any
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		// MetaData keys follow document order
		for _, key := range md.Keys() {
			v, ok := lookupPath(doc, key)
			if !ok {
				continue
			}
			if _, isTable := v.(map[string]any); isTable {
				continue
			}
			out.Set(strings.Join(key, keySeparator), dataValue(v))
		}
	case "json":
		var doc map[string]any
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		flattenInto(out, "", doc)
	case "yaml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if len(doc.Content) > 0 {
			if err := flattenYAML(out, "", doc.Content[0]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return out, nil
}

// flattenYAML walks a mapping node in document order
func flattenYAML(out *Map, prefix string, node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("failed to parse YAML: top level is not a mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := joinKey(prefix, node.Content[i].Value)
		child := node.Content[i+1]
		if child.Kind == yaml.MappingNode {
			if err := flattenYAML(out, key, child); err != nil {
				return err
			}
			continue
		}
		var v any
		if err := child.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode YAML key '%s': %w", key, err)
		}
		out.Set(key, dataValue(v))
	}
	return nil
}

// lookupPath resolves a TOML key path in a decoded document
func lookupPath(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// detectFileFormat maps data source extensions to formats; empty means dotenv text
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// TOML before YAML: most dotenv-like text is also a valid YAML scalar
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	return ""
}
