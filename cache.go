// FILE: lixenwraith/dotenv/cache.go
package dotenv

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// wireValue is the msgpack form of a Value
type wireValue struct {
	Kind uint8       `msgpack:"t"`
	B    bool        `msgpack:"b,omitempty"`
	I    int64       `msgpack:"i,omitempty"`
	F    float64     `msgpack:"f,omitempty"`
	S    string      `msgpack:"s,omitempty"`
	A    []wireValue `msgpack:"a,omitempty"`
}

// cacheEntry keeps the key order of the cached mapping
type cacheEntry struct {
	Key   string    `msgpack:"k"`
	Value wireValue `msgpack:"v"`
}

// cachePayload is the serialized cache file
type cachePayload struct {
	Written time.Time    `msgpack:"written"`
	Sources []string     `msgpack:"sources"`
	Entries []cacheEntry `msgpack:"entries"`
}

func toWire(v Value) wireValue {
	w := wireValue{Kind: uint8(v.kind), B: v.b, I: v.i, F: v.f, S: v.s}
	if v.kind == KindArray {
		w.A = make([]wireValue, len(v.a))
		for i, item := range v.a {
			w.A[i] = toWire(item)
		}
	}
	return w
}

func fromWire(w wireValue) (Value, error) {
	switch Kind(w.Kind) {
	case KindNull:
		return Null(), nil
	case KindBool:
		return Bool(w.B), nil
	case KindInt:
		return Int(w.I), nil
	case KindFloat:
		return Float(w.F), nil
	case KindString:
		return String(w.S), nil
	case KindArray:
		items := make([]Value, len(w.A))
		for i, item := range w.A {
			v, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown value kind %d", ErrCacheCorrupt, w.Kind)
	}
}

// EncodeCache serializes m with its sources and write time
func EncodeCache(m *Map, sources []string, written time.Time) ([]byte, error) {
	payload := cachePayload{
		Written: written.UTC(),
		Sources: sources,
		Entries: make([]cacheEntry, 0, m.Len()),
	}
	for k, v := range m.All() {
		payload.Entries = append(payload.Entries, cacheEntry{Key: k, Value: toWire(v)})
	}
	return msgpack.Marshal(&payload)
}

// DecodeCache restores a mapping written by EncodeCache
func DecodeCache(data []byte) (*Map, []string, time.Time, error) {
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	m := NewMap()
	for _, e := range payload.Entries {
		v, err := fromWire(e.Value)
		if err != nil {
			return nil, nil, time.Time{}, err
		}
		m.Set(e.Key, v)
	}
	return m, payload.Sources, payload.Written, nil
}

// readCache returns the cached mapping when it is fresh and built from the same sources
func (s *Store) readCache(plan loadPlan) (*Map, bool) {
	data, err := plan.reader.ReadFile(plan.cachePath)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			s.logger.Warn("env cache unreadable", "path", plan.cachePath, "error", err)
		}
		return nil, false
	}

	m, sources, written, err := DecodeCache(data)
	if err != nil {
		s.logger.Warn("env cache ignored", "path", plan.cachePath, "error", err)
		return nil, false
	}
	if age := time.Since(written); age >= plan.cacheTTL {
		s.logger.Debug("env cache expired", "path", plan.cachePath, "age", age)
		return nil, false
	}
	if !slices.Equal(sources, plan.sources) {
		s.logger.Debug("env cache sources changed", "path", plan.cachePath)
		return nil, false
	}

	s.logger.Debug("env cache hit", "path", plan.cachePath, "keys", m.Len())
	return m, true
}

// writeCache stores m in the cache file; failures are logged, not returned
func (s *Store) writeCache(path string, sources []string, m *Map, w Writer) {
	data, err := EncodeCache(m, sources, time.Now())
	if err != nil {
		s.logger.Warn("env cache encode failed", "path", path, "error", err)
		return
	}
	if err := w.WriteFile(path, data); err != nil {
		s.logger.Warn("env cache write failed", "path", path, "error", err)
		return
	}
	s.logger.Debug("env cache written", "path", path, "keys", m.Len())
}
