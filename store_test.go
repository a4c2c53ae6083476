// FILE: lixenwraith/dotenv/store_test.go
package dotenv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreValidation tests lazy validation before reads
func TestStoreValidation(t *testing.T) {
	t.Run("DefaultAppEnvRule", func(t *testing.T) {
		s := NewStore()
		assert.Equal(t, []string{AppEnvKey}, s.Validator().Keys())

		_, err := s.Get("ANY")
		assert.NoError(t, err, "absent APP_ENV passes")

		s.Set(AppEnvKey, "PRODUCTION")
		_, err = s.Get("ANY")
		assert.NoError(t, err)

		s.Set(AppEnvKey, "production")
		_, err = s.Get("ANY")
		verr := validationError(t, err)
		assert.Equal(t, AppEnvKey, verr.Key)
		assert.Equal(t, "allowedValues", verr.Rule)
	})

	t.Run("CachedUntilChange", func(t *testing.T) {
		s := NewStore()
		var calls atomic.Int32
		s.Required("A").Custom(func(string, Value, *Map) bool {
			calls.Add(1)
			return true
		})
		s.Set("A", 1)

		for range 3 {
			_, err := s.Get("A")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), calls.Load())

		s.Set("B", 2)
		_, err := s.Get("A")
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())

		s.IfPresent("C")
		require.NoError(t, s.Validate())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("FailureBlocksEveryRead", func(t *testing.T) {
		s := NewStore()
		s.Required("DB_HOST")

		_, err := s.Get("OTHER")
		assert.ErrorIs(t, err, ErrMissingRequiredKey)
		_, err = s.Lookup("OTHER", "x")
		assert.ErrorIs(t, err, ErrMissingRequiredKey)
		_, err = s.All()
		assert.ErrorIs(t, err, ErrMissingRequiredKey)
		assert.Equal(t, StateFailed, s.Validator().State())

		s.Set("DB_HOST", "db")
		v, err := s.Get("DB_HOST")
		require.NoError(t, err)
		assert.Equal(t, String("db"), v)
	})

	t.Run("UnrequireRecovers", func(t *testing.T) {
		s := NewStore()
		s.Required("MISSING")
		require.Error(t, s.Validate())
		s.Unrequire("MISSING")
		assert.NoError(t, s.Validate())
	})
}

// TestStoreAccess tests the read and write operations
func TestStoreAccess(t *testing.T) {
	t.Run("GetAbsentIsNull", func(t *testing.T) {
		s := NewStore()
		v, err := s.Get("NOPE")
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("Lookup", func(t *testing.T) {
		s := NewStore()
		s.Set("SET", "x")
		s.Set("NULLED", nil)
		s.Set("ZERO", 0)

		v, err := s.Lookup("SET", "fallback")
		require.NoError(t, err)
		assert.Equal(t, String("x"), v)

		v, _ = s.Lookup("MISSING", 5)
		assert.Equal(t, Int(5), v)
		v, _ = s.Lookup("NULLED", "fb")
		assert.Equal(t, String("fb"), v)
		v, _ = s.Lookup("ZERO", 9)
		assert.Equal(t, Int(0), v)
	})

	t.Run("DeleteAndMerge", func(t *testing.T) {
		s := NewStore()
		s.Set("A", 1)
		s.Merge(data("B", 2, "A", 3))
		s.Delete("B")

		all, err := s.All()
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, all.Keys())
		v, _ := all.Get("A")
		assert.Equal(t, Int(3), v)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("AllIsCopy", func(t *testing.T) {
		s := NewStore()
		s.Set("A", 1)
		all, err := s.All()
		require.NoError(t, err)
		all.Set("B", Int(2))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("Debug", func(t *testing.T) {
		s := NewStore()
		s.Required("A").IsInteger()
		s.Set("A", 1)

		var buf bytes.Buffer
		s.Debug(&buf)
		out := buf.String()
		assert.Contains(t, out, "rule A: [required isInteger]")
		assert.Contains(t, out, "A = int(1)")
	})
}

// TestStoreEnvironment tests the APP_ENV helpers
func TestStoreEnvironment(t *testing.T) {
	tests := []struct {
		env   any
		dev   bool
		prod  bool
		stage bool
		local bool
	}{
		{nil, true, false, false, false},
		{EnvDev, true, false, false, false},
		{EnvProduction, false, true, false, false},
		{EnvStaging, false, false, true, false},
		{EnvLocal, false, false, false, true},
	}

	for _, tt := range tests {
		s := NewStore()
		if tt.env != nil {
			s.Set(AppEnvKey, tt.env)
		}

		dev, err := s.IsDev()
		require.NoError(t, err)
		prod, _ := s.IsProduction()
		staging, _ := s.IsStaging()
		local, _ := s.IsLocal()

		assert.Equal(t, tt.dev, dev, "dev %v", tt.env)
		assert.Equal(t, tt.prod, prod, "production %v", tt.env)
		assert.Equal(t, tt.stage, staging, "staging %v", tt.env)
		assert.Equal(t, tt.local, local, "local %v", tt.env)
	}

	t.Run("InvalidEnvErrors", func(t *testing.T) {
		s := NewStore()
		s.Set(AppEnvKey, "QA")
		_, err := s.IsDev()
		assert.ErrorIs(t, err, ErrValidationFailed)
		_, err = s.IsProduction()
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

// TestStoreWorkDir tests work directory handling and Flush
func TestStoreWorkDir(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		s := NewStore()
		err := s.SetWorkDir(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrInvalidWorkDirectory)

		file := filepath.Join(t.TempDir(), "file.env")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		assert.ErrorIs(t, s.SetWorkDir(file), ErrInvalidWorkDirectory)
		assert.Empty(t, s.WorkDir())
		assert.Empty(t, s.CachePath())
	})

	t.Run("Absolute", func(t *testing.T) {
		dir := t.TempDir()
		s := NewStore(WithCacheFile("custom.cache"))
		require.NoError(t, s.SetWorkDir(dir))
		assert.True(t, filepath.IsAbs(s.WorkDir()))
		assert.Equal(t, filepath.Join(s.WorkDir(), "custom.cache"), s.CachePath())
	})

	t.Run("Flush", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.env"), []byte("A=1\n"), 0644))

		s := NewStore()
		require.NoError(t, s.SetWorkDir(dir))
		s.Required("A")
		s.SetInline("I", "x")
		require.NoError(t, s.ReadEnv(context.Background(), time.Hour))
		require.FileExists(t, s.CachePath())
		cachePath := s.CachePath()

		require.NoError(t, s.Flush())
		assert.NoFileExists(t, cachePath)
		assert.Zero(t, s.Len())
		assert.Empty(t, s.WorkDir())
		assert.Empty(t, s.Sources())
		assert.Equal(t, []string{AppEnvKey}, s.Validator().Keys())

		// Flushing again without a cache is fine
		assert.NoError(t, s.Flush())
	})
}

// TestStoreConcurrent tests mixed readers and writers
func TestStoreConcurrent(t *testing.T) {
	s := NewStore()
	s.IfPresent("N").IsInteger()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.Set("N", n)
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.Get("N")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := s.Get("N")
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
}
