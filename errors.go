// FILE: lixenwraith/dotenv/errors.go
package dotenv

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, check with errors.Is
var (
	// ErrFileNotFound is returned when a source path is not a regular, readable file
	ErrFileNotFound = errors.New("env file not found")

	// ErrEmptySource is returned when a loaded file or data source yields no entries,
	// or when registering an empty store
	ErrEmptySource = errors.New("env source is empty")

	// ErrMissingRequiredKey is wrapped by validation errors of required keys absent from the data
	ErrMissingRequiredKey = errors.New("missing required env key")

	// ErrValidationFailed is wrapped by every other rule failure
	ErrValidationFailed = errors.New("env validation failed")

	// ErrInvalidWorkDirectory is returned when the work directory does not exist
	ErrInvalidWorkDirectory = errors.New("invalid env work directory")

	// ErrUnsupportedFormat is returned for unknown data source or export formats
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCacheCorrupt is returned when the cache file cannot be decoded
	ErrCacheCorrupt = errors.New("env cache corrupt")
)

// ValidationError describes the first failing rule of a validation run.
type ValidationError struct {
	Key     string  // Offending key
	Rule    string  // Label of the failing rule
	Value   Value   // Value observed for Key (Null when absent)
	Present bool    // Whether Key was present in the data
	Allowed []Value // Allowed set, only for AllowedValues failures
	Cause   error   // Underlying error of expression rules, may be nil
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	if !e.Present && e.Rule == ruleLabelRequired {
		fmt.Fprintf(&b, "%s: %s", ErrMissingRequiredKey, e.Key)
		return b.String()
	}

	fmt.Fprintf(&b, "%s: rule %s for key %s » `%s`", ErrValidationFailed, e.Rule, e.Key, e.Value.String())
	if len(e.Allowed) > 0 {
		parts := make([]string, len(e.Allowed))
		for i, v := range e.Allowed {
			parts[i] = v.String()
		}
		fmt.Fprintf(&b, "; allowed data set: %s", strings.Join(parts, "; "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the sentinel matching the failure and the cause, if any.
func (e *ValidationError) Unwrap() []error {
	sentinel := ErrValidationFailed
	if !e.Present && e.Rule == ruleLabelRequired {
		sentinel = ErrMissingRequiredKey
	}
	if e.Cause != nil {
		return []error{sentinel, e.Cause}
	}
	return []error{sentinel}
}
