// FILE: lixenwraith/dotenv/validator_test.go
package dotenv

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// data builds a Map from alternating key and value arguments
func data(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), ValueOf(kv[i+1]))
	}
	return m
}

// validationError asserts err is a *ValidationError and returns it
func validationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
	return verr
}

// TestValidatorPresence tests required and optional keys
func TestValidatorPresence(t *testing.T) {
	t.Run("RequiredMissing", func(t *testing.T) {
		v := NewValidator()
		v.Required("A", "B")

		err := v.ValidateAll(data("A", 1))
		verr := validationError(t, err)
		assert.Equal(t, "B", verr.Key)
		assert.Equal(t, "required", verr.Rule)
		assert.False(t, verr.Present)
		assert.ErrorIs(t, err, ErrMissingRequiredKey)
		assert.NotErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "B")
	})

	t.Run("RequiredPresent", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").IsInteger()
		assert.NoError(t, v.ValidateAll(data("A", 1)))
	})

	t.Run("NullCountsAsPresent", func(t *testing.T) {
		v := NewValidator()
		v.Required("A")
		assert.NoError(t, v.ValidateAll(data("A", nil)))
	})

	t.Run("IfPresentSkipsAbsent", func(t *testing.T) {
		v := NewValidator()
		v.IfPresent("PORT").IsInteger().NotEmpty().Custom(func(string, Value, *Map) bool { return false })
		assert.NoError(t, v.ValidateAll(NewMap()))
	})

	t.Run("IfPresentChecksPresent", func(t *testing.T) {
		v := NewValidator()
		v.IfPresent("PORT").IsInteger()

		err := v.ValidateAll(data("PORT", "abc"))
		verr := validationError(t, err)
		assert.Equal(t, "isInteger", verr.Rule)
		assert.True(t, verr.Present)
		assert.Equal(t, String("abc"), verr.Value)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("SelectionInertAfterUnrequire", func(t *testing.T) {
		v := NewValidator()
		sel := v.Required("X", "Y")
		v.Unrequire("X")
		sel.IsString().NotEmpty()

		assert.Empty(t, v.Rules("X"))
		assert.Equal(t, []Rule{RulePresence{Required: true}}, v.Rules("Y"))
		verr := validationError(t, v.ValidateAll(NewMap()))
		assert.Equal(t, "Y", verr.Key)
		assert.Equal(t, "required", verr.Rule)
	})

	t.Run("SelectionInertAfterReset", func(t *testing.T) {
		v := NewValidator()
		sel := v.IfPresent("X")
		v.Reset()
		sel.IsInteger()

		assert.Empty(t, v.Keys())
		assert.NoError(t, v.ValidateAll(data("X", "abc")))
	})

	t.Run("EmptyKeysIgnored", func(t *testing.T) {
		v := NewValidator()
		sel := v.Required("", "A", "")
		assert.Equal(t, []string{"A"}, sel.Keys())
		assert.Equal(t, []string{"A"}, v.Keys())
	})
}

// TestValidatorRules tests each rule kind
func TestValidatorRules(t *testing.T) {
	t.Run("Types", func(t *testing.T) {
		cases := []struct {
			name  string
			apply func(Selection) Selection
			pass  any
			fail  any
		}{
			{"isInteger", Selection.IsInteger, 1, 1.5},
			{"isFloat", Selection.IsFloat, 1.5, 1},
			{"isBoolean", Selection.IsBoolean, true, "true"},
			{"isString", Selection.IsString, "x", 1},
			{"isArray", Selection.IsArray, []string{"a"}, "a"},
		}
		for _, tc := range cases {
			v := NewValidator()
			tc.apply(v.Required("K"))
			assert.NoError(t, v.ValidateAll(data("K", tc.pass)), tc.name)

			verr := validationError(t, v.ValidateAll(data("K", tc.fail)))
			assert.Equal(t, tc.name, verr.Rule)
		}
	})

	t.Run("AllowedValuesStrict", func(t *testing.T) {
		v := NewValidator()
		v.Required("LEVEL").AllowedValues("debug", 1, true)

		assert.NoError(t, v.ValidateAll(data("LEVEL", "debug")))
		assert.NoError(t, v.ValidateAll(data("LEVEL", 1)))
		assert.NoError(t, v.ValidateAll(data("LEVEL", true)))

		err := v.ValidateAll(data("LEVEL", "1"))
		verr := validationError(t, err)
		assert.Equal(t, "allowedValues", verr.Rule)
		assert.Equal(t, []Value{String("debug"), Int(1), Bool(true)}, verr.Allowed)
		assert.Contains(t, err.Error(), "allowed data set: debug; 1; true")

		_ = validationError(t, v.ValidateAll(data("LEVEL", "DEBUG")))
	})

	t.Run("NotEmpty", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").NotEmpty()
		assert.NoError(t, v.ValidateAll(data("A", "x")))
		for _, empty := range []any{"", "0", 0, false, nil} {
			verr := validationError(t, v.ValidateAll(data("A", empty)))
			assert.Equal(t, "notEmpty", verr.Rule)
		}
	})

	t.Run("DateTime", func(t *testing.T) {
		v := NewValidator()
		v.Required("D").IsDateTime()
		for _, ok := range []string{"2022-04-01T00:00", "2024-01-02", "2024-01-02 03:04:05", "@1700000000", "tomorrow", "Mon, 02 Jan 2006 15:04:05 MST"} {
			assert.NoError(t, v.ValidateAll(data("D", ok)), ok)
		}
		for _, bad := range []any{"not a date", "", "2024-13-45", nil} {
			verr := validationError(t, v.ValidateAll(data("D", bad)))
			assert.Equal(t, "isDateTime", verr.Rule)
		}
	})

	t.Run("Custom", func(t *testing.T) {
		v := NewValidator()
		var seenKey string
		var seenLen int
		v.Required("PORT").Custom(func(key string, value Value, all *Map) bool {
			seenKey, seenLen = key, all.Len()
			n, ok := value.AsInt()
			return ok && n > 1024
		})

		assert.NoError(t, v.ValidateAll(data("PORT", 8080, "OTHER", "x")))
		assert.Equal(t, "PORT", seenKey)
		assert.Equal(t, 2, seenLen)

		verr := validationError(t, v.ValidateAll(data("PORT", 80)))
		assert.Equal(t, "customClosure", verr.Rule)
	})

	t.Run("Expr", func(t *testing.T) {
		v := NewValidator()
		v.Required("PORT").Expr(`value > 0 && value < 65536 && env.HOST != ""`)
		assert.NoError(t, v.ValidateAll(data("PORT", 8080, "HOST", "h")))

		verr := validationError(t, v.ValidateAll(data("PORT", 70000, "HOST", "h")))
		assert.Equal(t, "expr", verr.Rule)
		assert.Nil(t, verr.Cause)
	})

	t.Run("ExprCompileError", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").Expr("value +")
		err := v.ValidateAll(data("A", 1))
		verr := validationError(t, err)
		assert.Equal(t, "expr", verr.Rule)
		assert.Error(t, verr.Cause)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

// TestValidatorOrdering tests evaluation order and slot replacement
func TestValidatorOrdering(t *testing.T) {
	t.Run("FailFastInKeyOrder", func(t *testing.T) {
		v := NewValidator()
		v.Required("FIRST").IsInteger()
		v.Required("SECOND").IsInteger()

		verr := validationError(t, v.ValidateAll(data("FIRST", "a", "SECOND", "b")))
		assert.Equal(t, "FIRST", verr.Key)
	})

	t.Run("PresenceEvaluatedFirst", func(t *testing.T) {
		v := NewValidator()
		v.IfPresent("A").IsInteger()
		v.Unrequire("A")
		v.IfPresent("A").IsInteger()
		v.Required("A")

		rules := v.Rules("A")
		require.Len(t, rules, 2)
		assert.Equal(t, RulePresence{Required: true}, rules[0])
		assert.Equal(t, RuleType{Kind: KindInt}, rules[1])

		verr := validationError(t, v.ValidateAll(NewMap()))
		assert.Equal(t, "required", verr.Rule)
	})

	t.Run("SlotReplacedInPlace", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").AllowedValues("x").NotEmpty()
		v.IfPresent("A").AllowedValues("y")

		rules := v.Rules("A")
		require.Len(t, rules, 3)
		assert.Equal(t, RulePresence{Required: false}, rules[0])
		assert.Equal(t, RuleAllowed{Set: []Value{String("y")}}, rules[1])
		assert.Equal(t, RuleNotEmpty{}, rules[2])
	})

	t.Run("TypeSlotsPerKind", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").IsInteger().IsString()
		assert.Len(t, v.Rules("A"), 3)

		// Both type rules apply, so no value passes
		assert.Error(t, v.ValidateAll(data("A", 1)))
		assert.Error(t, v.ValidateAll(data("A", "s")))
	})

	t.Run("Idempotent", func(t *testing.T) {
		v := NewValidator()
		v.Required("A").IsInteger()
		before := v.Rules("A")
		v.Required("A").IsInteger()
		assert.Equal(t, before, v.Rules("A"))
		assert.Equal(t, []string{"A"}, v.Keys())
	})

	t.Run("Unrequire", func(t *testing.T) {
		v := NewValidator()
		v.Required("A", "B")
		v.Unrequire("A", "UNKNOWN")
		assert.Equal(t, []string{"B"}, v.Keys())
		assert.Empty(t, v.Rules("A"))
		assert.NoError(t, v.ValidateAll(data("B", 1)))
	})
}

// TestValidatorState tests lifecycle state and version tracking
func TestValidatorState(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, StateUnbuilt, v.State())
	assert.Equal(t, uint64(0), v.Version())

	v.Required("A")
	assert.Equal(t, StateBuilt, v.State())
	version := v.Version()
	assert.Positive(t, version)

	require.Error(t, v.ValidateAll(NewMap()))
	assert.Equal(t, StateFailed, v.State())

	require.NoError(t, v.ValidateAll(data("A", 1)))
	assert.Equal(t, StateValidated, v.State())
	assert.Equal(t, version, v.Version())

	v.invalidate()
	assert.Equal(t, StateBuilt, v.State())

	v.IfPresent("B").IsFloat()
	assert.Greater(t, v.Version(), version)

	v.Reset()
	assert.Equal(t, StateUnbuilt, v.State())
	assert.Empty(t, v.Keys())
	assert.Equal(t, "unbuilt", v.State().String())

	var sel Selection
	assert.NotPanics(t, func() { sel.IsInteger().NotEmpty() })
}

// TestValidatorConcurrent tests rule registration racing validation
func TestValidatorConcurrent(t *testing.T) {
	v := NewValidator()
	d := data("A", 1, "B", "x")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			v.IfPresent("A").IsInteger()
			v.IfPresent("B").IsString()
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, v.ValidateAll(d))
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"A", "B"}, v.Keys())
}
